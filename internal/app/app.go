// Package app assembles the engine and its collaborators from a
// configuration. Every frontend binary builds its runtime through New.
package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"quwei/internal/config"
	"quwei/internal/ime"
	"quwei/internal/logging"
	"quwei/internal/metrics"
	"quwei/internal/punctuation"
	"quwei/internal/quickphrase"
	"quwei/internal/store"
)

// App is a configured engine plus the services it delegates to.
type App struct {
	Engine      *ime.Engine
	Punctuation *punctuation.Service
	Phrases     *quickphrase.Manager

	// History is nil unless history was enabled at startup.
	History *store.Store

	Metrics *metrics.Engine

	log *logging.Logger
}

// New builds an App from cfg. A missing phrase file falls back to the
// built-in phrases; a broken punctuation table or database is an error.
func New(cfg *config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Default()
	}
	a := &App{
		Metrics: metrics.NewEngine(metrics.NewRegistry("quwei")),
		log:     log.WithComponent("app"),
	}

	table, err := punctuationTable(cfg.Punctuation)
	if err != nil {
		return nil, err
	}
	a.Punctuation = punctuation.NewService(table)
	a.Punctuation.SetEnabled(cfg.Punctuation.Enabled)
	a.Punctuation.SetPairedTogether(cfg.Punctuation.PairedTogether)

	a.Phrases = quickphrase.NewManager(quickphrase.NewIndex(a.loadPhrases(cfg.QuickPhrase.PhrasePath)),
		cfg.QuickPhrase.MaxCandidates)

	opts := ime.Options{
		Config:      cfg,
		Punctuator:  a.Punctuation,
		QuickPhrase: a.Phrases,
		Metrics:     a.Metrics,
		Logger:      log,
	}

	if cfg.History.Enabled {
		s, err := store.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.History = s
		opts.History = s
		a.prune(cfg.History.RetentionDays)
	}

	a.Engine, err = ime.NewEngine(opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Apply switches a running App to cfg. The history database is only opened
// at startup.
func (a *App) Apply(cfg *config.Config) error {
	if err := a.Engine.ApplyConfig(cfg); err != nil {
		return err
	}

	if cfg.Punctuation.TablePath != "" {
		table, err := punctuation.LoadTable(cfg.Punctuation.TablePath)
		if err != nil {
			a.log.Warn("punctuation table not reloaded", "path", cfg.Punctuation.TablePath, "error", err)
		} else {
			a.Punctuation.SetTable(table)
		}
	}
	a.Punctuation.SetEnabled(cfg.Punctuation.Enabled)
	a.Punctuation.SetPairedTogether(cfg.Punctuation.PairedTogether)

	a.Phrases.Reload(a.loadPhrases(cfg.QuickPhrase.PhrasePath))
	a.Phrases.SetMaxCandidates(cfg.QuickPhrase.MaxCandidates)

	if cfg.History.Enabled && a.History == nil {
		a.log.Info("history enabled; restart to open the database", "path", cfg.History.Path)
	}
	return nil
}

// Close releases the history database.
func (a *App) Close() error {
	if a.History == nil {
		return nil
	}
	err := a.History.Close()
	a.History = nil
	return err
}

func punctuationTable(cfg config.PunctuationConfig) (*punctuation.Table, error) {
	if cfg.TablePath == "" {
		return punctuation.DefaultTable(), nil
	}
	t, err := punctuation.LoadTable(cfg.TablePath)
	if err != nil {
		return nil, fmt.Errorf("load punctuation table: %w", err)
	}
	return t, nil
}

func (a *App) loadPhrases(path string) []quickphrase.Phrase {
	if path == "" {
		return quickphrase.DefaultPhrases()
	}
	phrases, err := quickphrase.LoadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.log.Warn("quick phrase file ignored", "path", path, "error", err)
		}
		return quickphrase.DefaultPhrases()
	}
	a.log.Debug("quick phrases loaded", "path", path, "count", len(phrases))
	return phrases
}

func (a *App) prune(days int) {
	if days <= 0 {
		return
	}
	n, err := a.History.Prune(time.Now().AddDate(0, 0, -days))
	if err != nil {
		a.log.Warn("history prune failed", "error", err)
		return
	}
	if n > 0 {
		a.log.Info("history pruned", "rows", n, "retention_days", days)
	}
}
