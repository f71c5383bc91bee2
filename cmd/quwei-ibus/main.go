//go:build linux

// quwei-ibus is the IBus frontend of the quwei input method.
//
// ibus-daemon starts it with --ibus once the component file is installed:
//
//	quwei-ibus -install     write ~/.local/share/ibus/component/quwei.xml
//	ibus restart
//
// Then add "Quwei" in ibus-setup or the desktop's input source settings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"quwei/internal/app"
	"quwei/internal/config"
	"quwei/internal/ime"
	"quwei/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "configuration file (default: platform config dir)")
	installFlag := flag.Bool("install", false, "install the IBus component and exit")
	uninstallFlag := flag.Bool("uninstall", false, "remove the IBus component and exit")
	restartFlag := flag.Bool("restart", false, "run 'ibus restart' after -install or -uninstall")
	flag.Bool("ibus", false, "started by ibus-daemon")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, created, err := loader.LoadOrCreate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "quwei-ibus: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *installFlag:
		exitOn(install(cfg.IBus, *restartFlag))
		return
	case *uninstallFlag:
		exitOn(uninstall(cfg.IBus, *restartFlag))
		return
	}

	if err := run(cfg, loader, created); err != nil {
		logging.Error("quwei-ibus exited", "error", err)
		os.Exit(1)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "quwei-ibus: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, loader *config.Loader, created bool) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg, err := logging.FromSettings(cfg.Logging, "quwei-ibus")
	if err != nil {
		return err
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()
	logging.SetDefault(log)

	if created {
		log.Info("default configuration written", "path", loader.Path())
	}

	lock, err := acquireLock(cfg.IBus.LockPath)
	if err != nil {
		return err
	}
	defer lock.release()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	loader.OnChange(func(next *config.Config) {
		if err := a.Apply(next); err != nil {
			log.Warn("configuration rejected", "error", err)
			return
		}
		if level, err := logging.ParseLevel(next.Logging.Level); err == nil && level != log.Level() {
			log.SetLevel(level)
			log.Info("log level changed", "level", logging.LevelString(level))
		}
	})
	if err := loader.Watch(); err != nil {
		log.Warn("configuration hot reload disabled", "error", err)
	} else {
		defer loader.Close()
		go logReloadErrors(loader, a, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Listen != "" {
		if err := serveMetrics(ctx, cfg.Metrics.Listen, a.Metrics.Registry(), log); err != nil {
			log.Warn("metrics disabled", "addr", cfg.Metrics.Listen, "error", err)
		}
	}

	server := ime.NewIBusServer(a.Engine, cfg.IBus, log)
	err = server.Serve(ctx)
	if errors.Is(err, ime.ErrNameTaken) {
		return fmt.Errorf("another engine owns %s: %w", cfg.IBus.BusName, err)
	}
	return err
}

func logReloadErrors(l *config.Loader, a *app.App, log *logging.Logger) {
	for err := range l.Errors() {
		a.Metrics.Reload(err)
		log.Warn("configuration reload failed", "error", err)
	}
}

func install(cfg config.IBusConfig, restart bool) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	dir, err := ime.DefaultComponentDir()
	if err != nil {
		return err
	}
	path, err := ime.InstallComponent(dir, cfg, exe)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %s\n", path)
	return restartIBus(restart)
}

func uninstall(cfg config.IBusConfig, restart bool) error {
	dir, err := ime.DefaultComponentDir()
	if err != nil {
		return err
	}
	if err := ime.UninstallComponent(dir, cfg); err != nil {
		return err
	}
	fmt.Println("Uninstalled.")
	return restartIBus(restart)
}

func restartIBus(restart bool) error {
	if !restart {
		fmt.Println("Run 'ibus restart' to apply.")
		return nil
	}
	out, err := exec.Command("ibus", "restart").CombinedOutput()
	if err != nil {
		return fmt.Errorf("ibus restart: %w: %s", err, out)
	}
	return nil
}
