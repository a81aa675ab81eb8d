package hotkey

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultShortcut is used when the configured shortcut cannot be parsed.
const DefaultShortcut = "Ctrl+Shift+V"

// ErrRegistration is wrapped by every RegistrationError.
var ErrRegistration = errors.New("shortcut registration failed")

// RegistrationError reports that the OS refused a trigger: the keyboard
// combination is owned by another process, or the mouse hook could not be
// installed.
type RegistrationError struct {
	Shortcut string
	Err      error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register shortcut %s, it may be in use by another program: %v", e.Shortcut, e.Err)
}

func (e *RegistrationError) Unwrap() []error { return []error{ErrRegistration, e.Err} }

type Config struct {
	Platform Platform
	Notifier Notifier
	Shortcut string
	Logger   zerolog.Logger
}

// Manager owns the active trigger and its OS registration. Except for the
// mouse hook procedure, all methods must be called from the host loop
// thread (see Loop.Do).
type Manager struct {
	platform Platform
	notify   Notifier
	log      zerolog.Logger

	// Read by the mouse hook thread. The trigger is replaced, never mutated.
	trigger    atomic.Pointer[Trigger]
	registered atomic.Bool

	keyboard keyboardRegistration
	mouse    mouseFilter
	closed   bool
}

// New builds an unregistered Manager for cfg.Shortcut. An invalid shortcut
// falls back to DefaultShortcut.
func New(cfg Config) *Manager {
	m := &Manager{
		platform: cfg.Platform,
		notify:   cfg.Notifier,
		log:      cfg.Logger.With().Str("component", "hotkey").Logger(),
	}
	if m.notify == nil {
		m.notify = NotifierFunc(func() {})
	}
	m.keyboard = keyboardRegistration{platform: cfg.Platform}
	m.mouse = mouseFilter{platform: cfg.Platform, active: m.armed, notify: m.notify}

	t, err := Parse(cfg.Shortcut)
	if err != nil {
		m.log.Warn().Err(err).Str("fallback", DefaultShortcut).Msg("Invalid shortcut, using default")
		t = MustParse(DefaultShortcut)
	}
	m.trigger.Store(&t)
	return m
}

// Trigger returns the active trigger.
func (m *Manager) Trigger() Trigger {
	return *m.trigger.Load()
}

// Shortcut returns the canonical display string of the active trigger.
func (m *Manager) Shortcut() string {
	return m.Trigger().String()
}

// Registered reports whether the active trigger is registered with the OS.
func (m *Manager) Registered() bool {
	return m.registered.Load()
}

func (m *Manager) armed() (Trigger, bool) {
	return *m.trigger.Load(), m.registered.Load()
}

// Register registers the active trigger. It is a no-op when already
// registered.
func (m *Manager) Register() error {
	if m.registered.Load() {
		return nil
	}
	t := m.Trigger()

	var err error
	switch t.Kind() {
	case KindKeyboard:
		err = m.keyboard.register(t)
	case KindMouse:
		err = m.mouse.install()
	default:
		err = fmt.Errorf("unknown trigger kind %d", t.Kind())
	}
	if err != nil {
		m.log.Warn().Err(err).Str("shortcut", t.String()).Msg("Failed to register shortcut")
		return &RegistrationError{Shortcut: t.String(), Err: err}
	}

	m.registered.Store(true)
	m.log.Info().Str("shortcut", t.String()).Str("kind", t.Kind().String()).Msg("Registered shortcut")
	return nil
}

// Unregister releases the OS registration. It is a no-op when not
// registered. If the OS refuses, the trigger stays registered.
func (m *Manager) Unregister() {
	if err := m.unregister(); err != nil {
		m.log.Warn().Err(err).Str("shortcut", m.Shortcut()).Msg("Failed to unregister shortcut")
	}
}

func (m *Manager) unregister() error {
	if !m.registered.Load() {
		return nil
	}

	t := m.Trigger()
	var err error
	switch t.Kind() {
	case KindKeyboard:
		err = m.keyboard.unregister()
	case KindMouse:
		err = m.mouse.uninstall()
	}
	if err != nil {
		return err
	}
	m.registered.Store(false)
	m.log.Debug().Str("shortcut", t.String()).Msg("Unregistered shortcut")
	return nil
}

// UpdateShortcut swaps the active trigger for text. On a parse error nothing
// changes. If the new trigger cannot be registered, the previous trigger and
// registration state are restored and the registration error is returned.
func (m *Manager) UpdateShortcut(text string) error {
	next, err := Parse(text)
	if err != nil {
		return err
	}

	prev := m.trigger.Load()
	wasRegistered := m.registered.Load()
	if err := m.unregister(); err != nil {
		return fmt.Errorf("release %s: %w", prev, err)
	}

	m.trigger.Store(&next)
	if err := m.Register(); err != nil {
		m.trigger.Store(prev)
		if wasRegistered {
			if rerr := m.Register(); rerr != nil {
				m.log.Error().Err(rerr).Str("shortcut", prev.String()).Msg("Failed to restore previous shortcut")
			}
		}
		return err
	}

	m.log.Info().Str("from", prev.String()).Str("to", next.String()).Msg("Changed shortcut")
	return nil
}

// ProcessMessage handles a message from the host loop. It reports whether
// the message was the keyboard trigger notification; anything else is left
// for the caller.
func (m *Manager) ProcessMessage(msg Message) bool {
	if !isTriggerMessage(msg) {
		return false
	}
	t, armed := m.armed()
	if !armed || t.Kind() != KindKeyboard {
		return false
	}
	m.notify.TriggerFired()
	return true
}

// Close unregisters the trigger and releases the mouse hook. Safe to call
// more than once; a failed release can be retried.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	if err := m.unregister(); err != nil {
		return err
	}
	m.closed = true
	return nil
}
