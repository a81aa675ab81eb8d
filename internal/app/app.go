package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/petems/pathsnap/internal/clipboard"
	"github.com/petems/pathsnap/internal/config"
	"github.com/petems/pathsnap/internal/history"
	"github.com/petems/pathsnap/internal/hotkey"
	"github.com/petems/pathsnap/internal/snapshot"
	"github.com/rs/zerolog"
)

var (
	ErrEmptySaveDir = errors.New("save directory must not be empty")
	ErrNoSavedPath  = errors.New("nothing saved yet")
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	// SetSaved reports a saved image; copied is false when the path could
	// not be put on the clipboard.
	SetSaved(path string, copied bool)
	SetError(msg string)
	SetShortcut(shortcut string)
}

// History records saved images. A failing history never fails a save.
type History interface {
	Record(path, format string, size int64, at time.Time) (int64, error)
	Last() (history.Entry, error)
	Recent(limit int) ([]history.Entry, error)
}

type Config struct {
	Hotkeys       *hotkey.Manager
	Loop          hotkey.Loop // thread that owns Hotkeys
	Clipboard     clipboard.Clipboard
	History       History // Optional - can be nil
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
	Now           func() time.Time
}

// App saves the clipboard image whenever the shortcut fires and owns the
// settings that drive the shortcut and the saver.
type App struct {
	hotkeys *hotkey.Manager
	loop    hotkey.Loop
	clip    clipboard.Clipboard
	hist    History
	log     zerolog.Logger
	status  StatusUpdater
	now     func() time.Time

	triggers chan struct{}

	mu       sync.Mutex
	cfg      *config.Config
	lastPath string
}

func New(cfg Config) *App {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		hotkeys:  cfg.Hotkeys,
		loop:     cfg.Loop,
		clip:     cfg.Clipboard,
		hist:     cfg.History,
		cfg:      cfg.Config,
		log:      cfg.Logger.With().Str("component", "app").Logger(),
		status:   cfg.StatusUpdater,
		now:      now,
		triggers: make(chan struct{}, 1),
	}
}

// SetStatusUpdater attaches the tray once it exists.
func (a *App) SetStatusUpdater(s StatusUpdater) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = s
}

func (a *App) statusUpdater() StatusUpdater {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// TriggerFired is called on the hook or loop thread and must not block.
// A trigger arriving while one is still pending is dropped.
func (a *App) TriggerFired() {
	select {
	case a.triggers <- struct{}{}:
	default:
		a.log.Debug().Msg("Save already pending, dropping trigger")
	}
}

// Run drains triggers until ctx is done.
func (a *App) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.triggers:
			a.Save()
		}
	}
}

// Register arms the configured shortcut.
func (a *App) Register() error {
	var err error
	if derr := a.loop.Do(func() { err = a.hotkeys.Register() }); derr != nil {
		return derr
	}
	if s := a.statusUpdater(); s != nil {
		if err != nil {
			s.SetError(fmt.Sprintf("Shortcut %s unavailable", a.hotkeys.Shortcut()))
		} else {
			s.SetShortcut(a.hotkeys.Shortcut())
			s.SetIdle()
		}
	}
	return err
}

// Save writes the clipboard image to the save directory and puts its
// quoted path on the clipboard.
func (a *App) Save() (string, error) {
	status := a.statusUpdater()

	data, err := a.clip.ReadImage()
	if err != nil {
		if errors.Is(err, clipboard.ErrNoImage) {
			a.log.Info().Msg("No image on clipboard")
			if status != nil {
				status.SetError("No image on clipboard")
			}
		} else {
			a.log.Error().Err(err).Msg("Failed to read clipboard")
			if status != nil {
				status.SetError("Could not read clipboard")
			}
		}
		return "", err
	}

	cfg := a.Config()
	saver := snapshot.Saver{
		Dir:     cfg.SaveDir,
		Format:  snapshot.ParseFormat(cfg.ImageFormat),
		Pattern: cfg.FileNamePattern,
		Logger:  a.log,
	}
	at := a.now()
	res, err := saver.Save(data, at)
	if err != nil {
		a.log.Error().Err(err).Str("dir", cfg.SaveDir).Msg("Save failed")
		if status != nil {
			status.SetError("Save failed")
		}
		return "", err
	}

	a.mu.Lock()
	a.lastPath = res.Path
	a.mu.Unlock()

	if a.hist != nil {
		if _, err := a.hist.Record(res.Path, string(saver.Format), int64(res.Bytes), at); err != nil {
			a.log.Warn().Err(err).Msg("Failed to record history")
		}
	}

	copied := true
	if err := a.clip.WriteText(clipboard.QuotePath(res.Path)); err != nil {
		a.log.Warn().Err(err).Msg("Image saved, but copying the path failed")
		copied = false
	}
	if status != nil {
		status.SetSaved(res.Path, copied)
	}
	return res.Path, nil
}

// LastPath returns the most recently saved path, from history when the
// process has not saved anything yet.
func (a *App) LastPath() (string, error) {
	a.mu.Lock()
	last := a.lastPath
	a.mu.Unlock()
	if last != "" {
		return last, nil
	}
	if a.hist == nil {
		return "", ErrNoSavedPath
	}
	e, err := a.hist.Last()
	if errors.Is(err, history.ErrEmpty) {
		return "", ErrNoSavedPath
	}
	if err != nil {
		return "", err
	}
	return e.Path, nil
}

// CopyLastPath puts the quoted last saved path on the clipboard.
func (a *App) CopyLastPath() error {
	path, err := a.LastPath()
	if err != nil {
		return err
	}
	return a.CopyPath(path)
}

// CopyPath puts path on the clipboard, quoted.
func (a *App) CopyPath(path string) error {
	return a.clip.WriteText(clipboard.QuotePath(path))
}

// RecentPaths lists up to limit saved paths, newest first. Without a
// history only the paths saved by this process are known.
func (a *App) RecentPaths(limit int) ([]string, error) {
	if a.hist == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.lastPath == "" {
			return nil, nil
		}
		return []string{a.lastPath}, nil
	}
	entries, err := a.hist.Recent(limit)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

// Config returns a snapshot of the current settings.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Clone()
}

// Shortcut is the canonical text of the active shortcut.
func (a *App) Shortcut() string {
	return a.hotkeys.Shortcut()
}

// UpdateSettings swaps the shortcut first and commits the save directory
// and shortcut to disk only once the swap succeeded.
func (a *App) UpdateSettings(saveDir, shortcut string) error {
	saveDir = strings.TrimSpace(saveDir)
	if saveDir == "" {
		return ErrEmptySaveDir
	}

	if err := a.applyShortcut(shortcut); err != nil {
		return err
	}

	a.mu.Lock()
	a.cfg.SaveDir = saveDir
	a.cfg.Hotkey = a.hotkeys.Shortcut()
	err := a.cfg.Save()
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	a.log.Info().Str("save_dir", saveDir).Str("hotkey", a.hotkeys.Shortcut()).Msg("Settings updated")
	if s := a.statusUpdater(); s != nil {
		s.SetShortcut(a.hotkeys.Shortcut())
	}
	return nil
}

// ReloadConfig adopts a config changed on disk. A shortcut that cannot be
// applied is ignored and the active one kept.
func (a *App) ReloadConfig(next *config.Config) {
	next = next.Clone()
	if err := a.applyShortcut(next.Hotkey); err != nil {
		a.log.Warn().Err(err).
			Str("requested", next.Hotkey).
			Str("keeping", a.hotkeys.Shortcut()).
			Msg("Config reload: shortcut not applied")
	}
	next.Hotkey = a.hotkeys.Shortcut()

	a.mu.Lock()
	a.cfg = next
	a.mu.Unlock()

	a.log.Info().Str("save_dir", next.SaveDir).Str("hotkey", next.Hotkey).Msg("Config reloaded")
	if s := a.statusUpdater(); s != nil {
		s.SetShortcut(next.Hotkey)
	}
}

// applyShortcut runs UpdateShortcut on the loop thread unless text already
// names the active, armed trigger. An unarmed trigger is registered again.
func (a *App) applyShortcut(text string) error {
	if t, err := hotkey.Parse(text); err == nil && t == a.hotkeys.Trigger() {
		if a.hotkeys.Registered() {
			return nil
		}
		var err error
		if derr := a.loop.Do(func() { err = a.hotkeys.Register() }); derr != nil {
			return derr
		}
		return err
	}
	var err error
	if derr := a.loop.Do(func() { err = a.hotkeys.UpdateShortcut(text) }); derr != nil {
		return derr
	}
	return err
}

// Shutdown releases the shortcut.
func (a *App) Shutdown() error {
	var err error
	if derr := a.loop.Do(func() { err = a.hotkeys.Close() }); derr != nil {
		return derr
	}
	return err
}
