// quwei-term runs the quwei input method inside a terminal, without an
// input method framework. Keys go through the same engine and key bindings
// as the IBus frontend; committed text accumulates on screen.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"quwei/internal/app"
	"quwei/internal/config"
	"quwei/internal/logging"
)

const session = "term"

func main() {
	configPath := flag.String("config", "", "configuration file (default: platform config dir)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "quwei-term: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, _, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	// The screen owns the terminal, so logs only go to the file.
	logCfg, err := logging.FromSettings(cfg.Logging, "quwei-term")
	if err != nil {
		return err
	}
	logCfg.Output = "file"
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := &view{}
	v.render(screen)

	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				a.Engine.Detach(session)
				return nil
			}
			keyval, state, ok := keysym(ev.Key(), ev.Rune(), ev.Modifiers())
			if !ok || !a.Engine.HandleKey(session, v, keyval, state) {
				v.passThrough(ev.Key(), ev.Rune())
			}
		case nil:
			return nil
		}
		v.render(screen)
	}
}
