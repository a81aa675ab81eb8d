package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/pathsnap/internal/app"
	"github.com/petems/pathsnap/internal/clipboard"
	"github.com/petems/pathsnap/internal/config"
	"github.com/petems/pathsnap/internal/history"
	"github.com/petems/pathsnap/internal/hotkey"
	"github.com/petems/pathsnap/internal/logging"
	"github.com/petems/pathsnap/internal/notify"
	"github.com/petems/pathsnap/internal/singleinstance"
	"github.com/petems/pathsnap/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	// Load config from XDG/Library/AppData. A broken file leaves us on defaults.
	cfg, cfgErr := config.Load()

	// Initialize logger with configured level
	log := logging.NewWithLevel(cfg.LogLevel)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Str("path", cfg.File()).Msg("Config unreadable, using defaults")
	}

	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		log.Info().Msg("PathSnap is already running")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to take instance lock")
	}
	defer lock.Release()
	log.Debug().Str("lock", lock.Name()).Msg("Instance lock held")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Host message loop that owns every shortcut registration
	sys := hotkey.NewSystem()
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	var application *app.App
	hkManager := hotkey.New(hotkey.Config{
		Platform: sys,
		Notifier: hotkey.NotifierFunc(func() { application.TriggerFired() }),
		Shortcut: cfg.Hotkey,
		Logger:   log,
	})
	go func() {
		if err := sys.Run(loopCtx, func(m hotkey.Message) { hkManager.ProcessMessage(m) }); err != nil {
			log.Error().Err(err).Msg("Message loop stopped")
		}
	}()

	// History is optional; saving still works without it
	var hist app.History
	db, err := history.Open(config.Dir())
	if err != nil {
		log.Warn().Err(err).Msg("History unavailable")
	} else {
		defer db.Close()
		hist = db
	}

	application = app.New(app.Config{
		Hotkeys:   hkManager,
		Loop:      sys,
		Clipboard: clipboard.New(),
		History:   hist,
		Config:    cfg,
		Logger:    log,
	})

	trayUI := tray.New(application, notify.New("PathSnap"), Version, Commit, log)
	application.SetStatusUpdater(trayUI)

	if err := application.Register(); err != nil {
		log.Warn().Err(err).Str("shortcut", application.Shortcut()).Msg("Shortcut not registered; pick another from the tray menu")
	}

	go application.Run(ctx)
	go func() {
		if err := config.Watch(ctx, cfg.File(), log, application.ReloadConfig); err != nil {
			log.Warn().Err(err).Msg("Config watch stopped")
		}
	}()

	log.Info().Str("version", Version).Str("shortcut", application.Shortcut()).Msg("PathSnap starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Start tray UI - MUST run on main thread
	if err := trayUI.Run(ctx, cancel); err != nil {
		log.Error().Err(err).Msg("Tray error")
	}

	if err := application.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
