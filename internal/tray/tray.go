package tray

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getlantern/systray"
	"github.com/pkg/browser"
	"github.com/petems/pathsnap/internal/config"
	"github.com/petems/pathsnap/internal/hotkey"
	"github.com/petems/pathsnap/internal/logging"
	"github.com/petems/pathsnap/internal/notify"
	"github.com/rs/zerolog"
)

const (
	appName = "PathSnap"
	// Windows truncates notification-area tooltips past 63 characters.
	maxTooltip = 63
	savedFor   = 3 * time.Second
	// Slots in the Recent Saves submenu.
	recentSlots = 5
)

// Shortcuts offered in the Shortcut submenu.
var presetShortcuts = []string{
	"Ctrl+Shift+V",
	"Ctrl+Alt+S",
	"F8",
	"Ctrl+MouseX1",
	"MouseX2",
}

// Controller is the part of the application the menu drives.
type Controller interface {
	TriggerFired()
	Config() *config.Config
	Shortcut() string
	UpdateSettings(saveDir, shortcut string) error
	ReloadConfig(cfg *config.Config)
	CopyLastPath() error
	CopyPath(path string) error
	RecentPaths(limit int) ([]string, error)
}

type UI struct {
	app     Controller
	notify  notify.Notifier
	version string
	commit  string
	log     zerolog.Logger
	onQuit  func()

	ready atomic.Bool

	mu          sync.Mutex
	shortcut    string
	idleTimer   *time.Timer
	recentPaths []string

	// Menu items
	mShortcut *systray.MenuItem
	mPresets  map[string]*systray.MenuItem
	mRecent   *systray.MenuItem
	mSlots    []*systray.MenuItem
}

// New builds the tray UI. A nil notifier disables desktop notifications.
func New(application Controller, notifier notify.Notifier, version, commit string, log zerolog.Logger) *UI {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &UI{
		app:      application,
		notify:   notifier,
		version:  version,
		commit:   commit,
		log:      log.With().Str("component", "tray").Logger(),
		shortcut: application.Shortcut(),
		mPresets: make(map[string]*systray.MenuItem),
	}
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetSaved(path string, copied bool) {
	msg := savedMessage(path, copied)
	u.log.Info().Str("path", path).Bool("copied", copied).Msg(msg)
	if copied {
		u.updateStatus("saved")
	} else {
		u.updateStatus("warning")
	}
	u.show(msg)
	u.refreshRecent()
	u.resetToIdle()
}

func (u *UI) SetError(msg string) {
	u.log.Warn().Msg(msg)
	u.updateStatus("error")
	u.show(msg)
	u.resetToIdle()
}

// show posts a desktop notification. Failures are only logged.
func (u *UI) show(msg string) {
	if err := u.notify.Notify(appName, msg); err != nil {
		u.log.Debug().Err(err).Msg("Notification not shown")
	}
}

func (u *UI) SetShortcut(shortcut string) {
	u.mu.Lock()
	u.shortcut = shortcut
	u.mu.Unlock()
	if !u.ready.Load() {
		return
	}
	systray.SetTooltip(Tooltip(shortcut))
	u.mShortcut.SetTitle(shortcutLabel(shortcut))
	for preset, item := range u.mPresets {
		if hotkey.Normalize(preset) == shortcut {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// Run blocks on the tray event loop until Quit is chosen or ctx ends.
// onQuit runs when the user picks Quit.
func (u *UI) Run(ctx context.Context, onQuit func()) error {
	u.onQuit = onQuit
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.mu.Lock()
	shortcut := u.shortcut
	u.mu.Unlock()

	u.mShortcut = systray.AddMenuItem(shortcutLabel(shortcut), "Global shortcut")
	for _, preset := range presetShortcuts {
		u.mPresets[preset] = u.mShortcut.AddSubMenuItemCheckbox(
			hotkey.FormatForDisplay(preset), "Use "+preset, false)
	}
	systray.AddSeparator()

	mSave := systray.AddMenuItem("Save Clipboard Image", "Save the clipboard image now")
	mCopy := systray.AddMenuItem("Copy Last Path", "Copy the last saved path")
	mFolder := systray.AddMenuItem("Open Save Folder", "Open the folder images are saved to")
	u.mRecent = systray.AddMenuItem("Recent Saves", "Copy the path of a recent save")
	for i := 0; i < recentSlots; i++ {
		slot := u.mRecent.AddSubMenuItem("", "Copy this path")
		slot.Hide()
		u.mSlots = append(u.mSlots, slot)
	}
	systray.AddSeparator()

	mReload := systray.AddMenuItem("Reload Config", "Re-read config.json")
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About PathSnap")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.ready.Store(true)
	u.updateStatus("idle")
	u.SetShortcut(shortcut)
	u.refreshRecent()

	for preset, item := range u.mPresets {
		go u.handlePreset(preset, item)
	}
	for i, slot := range u.mSlots {
		go u.handleRecent(i, slot)
	}

	// Event loop
	go u.handleEvents(mSave, mCopy, mFolder, mReload, mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mSave, mCopy, mFolder, mReload, mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-mSave.ClickedCh:
			u.app.TriggerFired()
		case <-mCopy.ClickedCh:
			u.copyLastPath()
		case <-mFolder.ClickedCh:
			u.openSaveFolder()
		case <-mReload.ClickedCh:
			u.reloadConfig()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			if u.onQuit != nil {
				u.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

func (u *UI) handlePreset(preset string, item *systray.MenuItem) {
	for range item.ClickedCh {
		u.applyPreset(preset)
	}
}

func (u *UI) applyPreset(preset string) {
	dir := u.app.Config().SaveDir
	if err := u.app.UpdateSettings(dir, preset); err != nil {
		u.log.Error().Err(err).Str("shortcut", preset).Msg("Failed to change shortcut")
		u.SetError(fmt.Sprintf("Shortcut %s unavailable", preset))
		// Restore the check marks to the active shortcut.
		u.SetShortcut(u.app.Shortcut())
		return
	}
	u.show("Settings updated\nShortcut: " + hotkey.FormatForDisplay(u.app.Shortcut()))
}

func (u *UI) handleRecent(slot int, item *systray.MenuItem) {
	for range item.ClickedCh {
		u.copyRecent(slot)
	}
}

func (u *UI) copyRecent(slot int) {
	u.mu.Lock()
	var path string
	if slot < len(u.recentPaths) {
		path = u.recentPaths[slot]
	}
	u.mu.Unlock()
	if path == "" {
		return
	}
	if err := u.app.CopyPath(path); err != nil {
		u.log.Warn().Err(err).Str("path", path).Msg("Copy path failed")
		u.SetError("Could not copy path")
	}
}

// refreshRecent reloads the Recent Saves submenu from history.
func (u *UI) refreshRecent() {
	paths, err := u.app.RecentPaths(recentSlots)
	if err != nil {
		u.log.Warn().Err(err).Msg("Failed to list recent saves")
		return
	}
	u.mu.Lock()
	u.recentPaths = paths
	u.mu.Unlock()
	if !u.ready.Load() {
		return
	}
	for i, slot := range u.mSlots {
		if i < len(paths) {
			slot.SetTitle(recentLabel(paths[i]))
			slot.SetTooltip(paths[i])
			slot.Show()
		} else {
			slot.Hide()
		}
	}
	if len(paths) == 0 {
		u.mRecent.Disable()
	} else {
		u.mRecent.Enable()
	}
}

func (u *UI) copyLastPath() {
	if err := u.app.CopyLastPath(); err != nil {
		u.log.Warn().Err(err).Msg("Copy last path failed")
		u.SetError("Nothing to copy")
	}
}

func (u *UI) openSaveFolder() {
	dir := u.app.Config().SaveDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		u.log.Error().Err(err).Str("dir", dir).Msg("Failed to create save folder")
		u.SetError("Cannot open save folder")
		return
	}
	if err := browser.OpenFile(dir); err != nil {
		u.log.Error().Err(err).Str("dir", dir).Msg("Failed to open save folder")
	}
}

func (u *UI) reloadConfig() {
	cfg, err := config.LoadFile(u.app.Config().File())
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to reload config")
		u.SetError("Config could not be read")
		return
	}
	u.app.ReloadConfig(cfg)
}

func (u *UI) openLogs() {
	if err := browser.OpenFile(logging.Path()); err != nil {
		u.log.Error().Err(err).Msg("Failed to open log file")
	}
}

func (u *UI) showAbout() {
	// systray has no dialogs; the log carries the version.
	u.log.Info().Str("version", u.version).Str("commit", u.commit).Msg(appName)
}

func (u *UI) onExit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.idleTimer != nil {
		u.idleTimer.Stop()
	}
}

// resetToIdle returns the title to idle after a transient status.
func (u *UI) resetToIdle() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.idleTimer != nil {
		u.idleTimer.Stop()
	}
	u.idleTimer = time.AfterFunc(savedFor, u.SetIdle)
}

// updateStatus sets the tray title with camera emoji and status indicator
func (u *UI) updateStatus(status string) {
	if !u.ready.Load() {
		return
	}
	systray.SetTitle(fmt.Sprintf("📷 %s", emojiForStatus(status)))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "saved":
		return "✅" // saved and path copied
	case "warning":
		return "🟡" // saved, path not copied
	case "error":
		return "⚪️"
	default:
		return "🟢" // Green - ready/idle
	}
}

// Tooltip is "PathSnap (<shortcut>)", or just "PathSnap" when that would
// not fit.
func Tooltip(shortcut string) string {
	text := fmt.Sprintf("%s (%s)", appName, shortcut)
	if len([]rune(text)) > maxTooltip {
		return appName
	}
	return text
}

func shortcutLabel(shortcut string) string {
	return "Shortcut: " + hotkey.FormatForDisplay(shortcut)
}

// recentLabel is the file name, with its parent folder when short enough.
func recentLabel(path string) string {
	name := filepath.Base(path)
	parent := filepath.Base(filepath.Dir(path))
	if parent == "." || parent == string(filepath.Separator) || len(parent)+len(name) > 48 {
		return name
	}
	return filepath.Join(parent, name)
}

func savedMessage(path string, copied bool) string {
	if copied {
		return "Saved and copied path: " + filepath.Base(path)
	}
	return "Image saved, but copying the path failed"
}
