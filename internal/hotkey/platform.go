package hotkey

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported is returned by backends that cannot provide a facility
	// on the current OS.
	ErrUnsupported = errors.New("not supported on this platform")

	// ErrNotOnLoopThread is returned when a registration is attempted from a
	// thread other than the host loop that receives hotkey messages.
	ErrNotOnLoopThread = errors.New("not called on the hotkey loop thread")

	// ErrLoopStopped is returned by Loop.Do once the loop has exited.
	ErrLoopStopped = errors.New("hotkey loop stopped")
)

// MsgHotkey is the message type the host loop delivers when a registered
// keyboard shortcut fires (WM_HOTKEY).
const MsgHotkey uint32 = 0x0312

// Message is one message taken off the host loop queue.
type Message struct {
	Msg    uint32
	WParam uintptr
	LParam uintptr
}

// Low-level mouse messages (WM_*BUTTONDOWN).
const (
	msgLButtonDown uint32 = 0x0201
	msgRButtonDown uint32 = 0x0204
	msgMButtonDown uint32 = 0x0207
	msgXButtonDown uint32 = 0x020B
)

const (
	xButton1 = 1
	xButton2 = 2
)

// MouseEvent is one event observed by a low-level mouse hook. Code is the
// hook code (negative means "do not process"), Message the WM_* identifier
// and MouseData the packed payload; for X buttons the high word holds the
// button number.
type MouseEvent struct {
	Code      int32
	Message   uint32
	MouseData uint32
}

// MouseProc is called for every low-level mouse event while a hook is
// installed. It runs on the hook delivery thread and must return quickly.
// Backends always pass the event on to the next hook after it returns.
type MouseProc func(MouseEvent)

// HookHandle identifies an installed mouse hook. Zero means none.
type HookHandle uintptr

// Platform is the OS surface the shortcut engine needs.
type Platform interface {
	// RegisterHotKey registers a system-wide keyboard shortcut. modifiers
	// uses the Win32 MOD_* encoding, vk is a virtual-key code. Must be
	// called on the loop thread.
	RegisterHotKey(id int, modifiers, vk uint32) error
	UnregisterHotKey(id int) error

	InstallMouseHook(proc MouseProc) (HookHandle, error)
	UninstallMouseHook(h HookHandle) error

	// KeyPressed reports whether the key with the given virtual-key code
	// is held down right now.
	KeyPressed(vk uint32) bool
}

// Loop is the host message thread. Every Manager call is made through Do so
// that registrations and notifications share one thread.
type Loop interface {
	// Run pumps messages until ctx is done, handing each one to dispatch.
	Run(ctx context.Context, dispatch func(Message)) error
	// Do runs fn on the loop thread and waits for it to return.
	Do(fn func()) error
}

// Notifier receives trigger-fired notifications. Mouse triggers notify from
// the hook thread, keyboard triggers from the loop thread.
type Notifier interface {
	TriggerFired()
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func()

func (f NotifierFunc) TriggerFired() { f() }
