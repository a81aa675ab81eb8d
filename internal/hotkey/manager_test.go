package hotkey

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newManager(t *testing.T, shortcut string) (*Manager, *FakePlatform, *countingNotifier) {
	t.Helper()
	fp := NewFakePlatform()
	n := &countingNotifier{}
	m := New(Config{Platform: fp, Notifier: n, Shortcut: shortcut, Logger: zerolog.Nop()})
	return m, fp, n
}

func TestNewFallsBackToDefault(t *testing.T) {
	m, _, _ := newManager(t, "Ctrl+Banana")
	if m.Shortcut() != DefaultShortcut {
		t.Errorf("Shortcut() = %q, want %q", m.Shortcut(), DefaultShortcut)
	}
	if m.Registered() {
		t.Error("new manager should not be registered")
	}
}

func TestRegisterKeyboard(t *testing.T) {
	m, fp, _ := newManager(t, "ctrl+shift+v")

	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !m.Registered() {
		t.Fatal("Registered() = false after Register")
	}
	mods, vk, ok := fp.RegisteredHotKey(hotkeyID)
	if !ok {
		t.Fatal("no hotkey registered with the platform")
	}
	if vk != 'V' {
		t.Errorf("vk = 0x%X, want 0x%X", vk, 'V')
	}
	if mods != modControl|modShift|modNoRepeat {
		t.Errorf("modifiers = 0x%X, want 0x%X", mods, modControl|modShift|modNoRepeat)
	}

	// Already registered: no second platform call.
	if err := m.Register(); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if fp.HotKeys() != 1 {
		t.Errorf("HotKeys() = %d, want 1", fp.HotKeys())
	}
}

func TestRegisterRejected(t *testing.T) {
	m, fp, _ := newManager(t, "F8")
	fp.RejectKeys[0x77] = true

	err := m.Register()
	if err == nil {
		t.Fatal("Register succeeded, want error")
	}
	if !errors.Is(err, ErrRegistration) {
		t.Errorf("error %v does not wrap ErrRegistration", err)
	}
	var rerr *RegistrationError
	if !errors.As(err, &rerr) || rerr.Shortcut != "F8" {
		t.Errorf("expected *RegistrationError for F8, got %v", err)
	}
	if m.Registered() {
		t.Error("Registered() = true after failed Register")
	}
}

func TestRegisterMouseInstallsHook(t *testing.T) {
	m, fp, _ := newManager(t, "Ctrl+MouseX2")
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !fp.HookInstalled() {
		t.Fatal("mouse hook not installed")
	}
	if fp.HotKeys() != 0 {
		t.Error("mouse trigger registered a keyboard hotkey")
	}

	m.Unregister()
	if fp.HookInstalled() {
		t.Error("mouse hook still installed after Unregister")
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	for _, shortcut := range []string{"Ctrl+Alt+S", "MouseX1"} {
		t.Run(shortcut, func(t *testing.T) {
			m, fp, _ := newManager(t, shortcut)
			m.Unregister() // never registered

			if err := m.Register(); err != nil {
				t.Fatalf("Register: %v", err)
			}
			m.Unregister()
			m.Unregister()
			if m.Registered() {
				t.Error("Registered() = true after Unregister")
			}
			if fp.HotKeys() != 0 || fp.HookInstalled() {
				t.Error("platform registration left behind")
			}
			if m.Shortcut() != MustParse(shortcut).String() {
				t.Errorf("Unregister changed the shortcut to %q", m.Shortcut())
			}
		})
	}
}

func TestCloseIdempotent(t *testing.T) {
	m, fp, _ := newManager(t, "MouseLeft")
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if fp.HookInstalled() || m.Registered() {
		t.Error("Close left the trigger registered")
	}
	if fp.uninstall != 1 {
		t.Errorf("hook uninstalled %d times, want 1", fp.uninstall)
	}
}

func TestUpdateShortcutSuccess(t *testing.T) {
	m, fp, _ := newManager(t, "Ctrl+Shift+V")
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := m.UpdateShortcut("alt+f9"); err != nil {
		t.Fatalf("UpdateShortcut: %v", err)
	}
	if m.Shortcut() != "Alt+F9" {
		t.Errorf("Shortcut() = %q, want Alt+F9", m.Shortcut())
	}
	_, vk, ok := fp.RegisteredHotKey(hotkeyID)
	if !ok || vk != 0x78 {
		t.Errorf("platform holds vk 0x%X (ok=%v), want F9", vk, ok)
	}

	// Keyboard to mouse and back.
	if err := m.UpdateShortcut("Ctrl+MouseX1"); err != nil {
		t.Fatalf("UpdateShortcut to mouse: %v", err)
	}
	if fp.HotKeys() != 0 || !fp.HookInstalled() {
		t.Error("switch to mouse trigger did not swap registrations")
	}
	if err := m.UpdateShortcut("F8"); err != nil {
		t.Fatalf("UpdateShortcut to keyboard: %v", err)
	}
	if fp.HotKeys() != 1 || fp.HookInstalled() {
		t.Error("switch to keyboard trigger did not swap registrations")
	}
}

func TestUpdateShortcutParseErrorKeepsState(t *testing.T) {
	m, fp, _ := newManager(t, "Ctrl+Shift+V")
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	before := m.Trigger()

	err := m.UpdateShortcut("Ctrl+Win")
	if !errors.Is(err, ErrMissingMainKey) {
		t.Fatalf("UpdateShortcut error = %v, want ErrMissingMainKey", err)
	}
	if m.Trigger() != before || !m.Registered() {
		t.Error("parse failure changed manager state")
	}
	if fp.HotKeys() != 1 {
		t.Error("parse failure touched the platform registration")
	}
}

func TestUpdateShortcutRollback(t *testing.T) {
	tests := []struct {
		name       string
		initial    string
		register   bool
		next       string
		rejectKey  uint32
		rejectHook bool
	}{
		{"registered keyboard to rejected keyboard", "Ctrl+Shift+V", true, "Ctrl+Alt+S", 'S', false},
		{"unregistered keyboard to rejected keyboard", "Ctrl+Shift+V", false, "F8", 0x77, false},
		{"registered keyboard to rejected mouse", "Ctrl+Shift+V", true, "MouseX1", 0, true},
		{"registered mouse to rejected keyboard", "Ctrl+MouseLeft", true, "F8", 0x77, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fp, _ := newManager(t, tt.initial)
			if tt.register {
				if err := m.Register(); err != nil {
					t.Fatalf("Register: %v", err)
				}
			}
			if tt.rejectKey != 0 {
				fp.RejectKeys[tt.rejectKey] = true
			}
			fp.RejectMouse = tt.rejectHook

			before := m.Trigger()
			beforeRegistered := m.Registered()
			beforeHotkeys := fp.HotKeys()
			beforeHook := fp.HookInstalled()

			err := m.UpdateShortcut(tt.next)
			if !errors.Is(err, ErrRegistration) {
				t.Fatalf("UpdateShortcut error = %v, want ErrRegistration", err)
			}
			if m.Trigger() != before {
				t.Errorf("trigger = %v, want %v", m.Trigger(), before)
			}
			if m.Registered() != beforeRegistered {
				t.Errorf("Registered() = %v, want %v", m.Registered(), beforeRegistered)
			}
			if fp.HotKeys() != beforeHotkeys || fp.HookInstalled() != beforeHook {
				t.Error("platform registrations differ from before the failed update")
			}
		})
	}
}

func TestProcessMessage(t *testing.T) {
	m, _, n := newManager(t, "Ctrl+Shift+V")

	hotkeyMsg := Message{Msg: MsgHotkey, WParam: hotkeyID}
	if m.ProcessMessage(hotkeyMsg) {
		t.Error("unregistered manager handled WM_HOTKEY")
	}

	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.ProcessMessage(Message{Msg: MsgHotkey, WParam: hotkeyID + 1}) {
		t.Error("handled WM_HOTKEY for another id")
	}
	if m.ProcessMessage(Message{Msg: 0x0100, WParam: hotkeyID}) {
		t.Error("handled a non-hotkey message")
	}
	if n.n != 0 {
		t.Fatalf("foreign messages fired trigger %d times", n.n)
	}

	if !m.ProcessMessage(hotkeyMsg) {
		t.Error("WM_HOTKEY for our id not handled")
	}
	if n.n != 1 {
		t.Errorf("fired %d times, want 1", n.n)
	}
}

func TestProcessMessageIgnoredForMouseTrigger(t *testing.T) {
	m, _, n := newManager(t, "MouseX1")
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.ProcessMessage(Message{Msg: MsgHotkey, WParam: hotkeyID}) {
		t.Error("mouse trigger handled WM_HOTKEY")
	}
	if n.n != 0 {
		t.Error("mouse trigger fired on WM_HOTKEY")
	}
}

func TestNotifierFunc(t *testing.T) {
	fired := false
	fp := NewFakePlatform()
	m := New(Config{
		Platform: fp,
		Notifier: NotifierFunc(func() { fired = true }),
		Shortcut: "MouseRight",
		Logger:   zerolog.Nop(),
	})
	if err := m.Register(); err != nil {
		t.Fatalf("Register: %v", err)
	}
	fp.SimButtonDown(ButtonRight)
	if !fired {
		t.Error("NotifierFunc not called")
	}
}

func TestUnregisterFailureKeepsRegistration(t *testing.T) {
	for _, shortcut := range []string{"Ctrl+Shift+V", "Ctrl+MouseX1"} {
		t.Run(shortcut, func(t *testing.T) {
			m, fp, _ := newManager(t, shortcut)
			if err := m.Register(); err != nil {
				t.Fatalf("Register: %v", err)
			}
			fp.RejectRelease = true

			m.Unregister()
			if !m.Registered() {
				t.Error("Registered() = false while the OS still holds the shortcut")
			}

			if err := m.UpdateShortcut("F8"); err == nil {
				t.Fatal("UpdateShortcut succeeded without releasing the old shortcut")
			}
			if m.Shortcut() != MustParse(shortcut).String() || !m.Registered() {
				t.Errorf("state changed: %q registered=%v", m.Shortcut(), m.Registered())
			}
			if err := m.Close(); err == nil {
				t.Error("Close succeeded while release fails")
			}

			fp.RejectRelease = false
			if err := m.Close(); err != nil {
				t.Fatalf("Close retry: %v", err)
			}
			if m.Registered() || fp.HotKeys() != 0 || fp.HookInstalled() {
				t.Error("retry left the shortcut registered")
			}
		})
	}
}
