//go:build !windows

package hotkey

import (
	"context"
	"sync"
)

// keyBackend registers OS-level keyboard shortcuts. Activations are posted
// back to the loop as MsgHotkey messages carrying the registration id.
type keyBackend interface {
	register(id int, modifiers, vk uint32, post func(Message)) error
	unregister(id int) error
}

// mouseBackend delivers raw button events and tracks modifier keys.
type mouseBackend interface {
	install(proc MouseProc) (HookHandle, error)
	uninstall(h HookHandle) error
	keyPressed(vk uint32) bool
}

type unsupportedMouse struct{}

func (unsupportedMouse) install(MouseProc) (HookHandle, error) { return 0, ErrUnsupported }
func (unsupportedMouse) uninstall(HookHandle) error            { return ErrUnsupported }
func (unsupportedMouse) keyPressed(uint32) bool                { return false }

// System is the Platform and Loop outside Windows. The loop is a goroutine
// serialising Do calls with backend notifications.
type System struct {
	keys  keyBackend
	mouse mouseBackend

	calls chan func()
	msgs  chan Message
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewSystem() *System {
	keys, mouse := newBackends()
	return &System{
		keys:  keys,
		mouse: mouse,
		calls: make(chan func()),
		msgs:  make(chan Message, 8),
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (s *System) Run(ctx context.Context, dispatch func(Message)) error {
	defer s.once.Do(func() { close(s.done) })
	close(s.ready)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.calls:
			fn()
		case msg := <-s.msgs:
			dispatch(msg)
		}
	}
}

// Do runs fn on the loop goroutine and waits. It must not be called from
// inside dispatch.
func (s *System) Do(fn func()) error {
	select {
	case <-s.ready:
	case <-s.done:
		return ErrLoopStopped
	}
	finished := make(chan struct{})
	select {
	case s.calls <- func() { defer close(finished); fn() }:
	case <-s.done:
		return ErrLoopStopped
	}
	<-finished
	return nil
}

// post queues a notification for the loop; it drops when the loop is behind.
func (s *System) post(msg Message) {
	select {
	case s.msgs <- msg:
	default:
	}
}

func (s *System) RegisterHotKey(id int, modifiers, vk uint32) error {
	return s.keys.register(id, modifiers, vk, s.post)
}

func (s *System) UnregisterHotKey(id int) error {
	return s.keys.unregister(id)
}

func (s *System) InstallMouseHook(proc MouseProc) (HookHandle, error) {
	return s.mouse.install(proc)
}

func (s *System) UninstallMouseHook(h HookHandle) error {
	return s.mouse.uninstall(h)
}

func (s *System) KeyPressed(vk uint32) bool {
	return s.mouse.keyPressed(vk)
}
