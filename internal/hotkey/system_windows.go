//go:build windows

package hotkey

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey      = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey    = user32.NewProc("UnregisterHotKey")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
)

const (
	whMouseLL  = 14
	wmQuit     = 0x0012
	wmApp      = 0x8000
	wmRunCalls = wmApp + 1
	pmNoRemove = 0x0000
)

type point struct {
	x, y int32
}

// winMsg mirrors the Win32 MSG struct.
type winMsg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// msllHookStruct mirrors MSLLHOOKSTRUCT.
type msllHookStruct struct {
	pt          point
	mouseData   uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// System is the Win32 Platform and Loop. Keyboard shortcuts are registered
// against the loop thread's message queue; the mouse hook gets its own
// thread and message pump.
type System struct {
	threadID atomic.Uint32
	ready    chan struct{}
	done     chan struct{}
	calls    chan func()
	once     sync.Once

	hookMu sync.Mutex
	hook   *hookThread
}

func NewSystem() *System {
	return &System{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
		calls: make(chan func(), 16),
	}
}

// Run pumps the loop thread's message queue. Thread messages (no window)
// are handed to dispatch.
func (s *System) Run(ctx context.Context, dispatch func(Message)) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer s.once.Do(func() { close(s.done) })

	tid := windows.GetCurrentThreadId()

	// PeekMessageW creates the thread queue so PostThreadMessageW works.
	var m winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	s.threadID.Store(tid)
	close(s.ready)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			postThreadMessage(tid, wmQuit)
		case <-stop:
		}
	}()

	for {
		ret, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			return fmt.Errorf("GetMessageW: %w", err)
		case 0:
			s.drainCalls()
			return nil
		}

		if m.hwnd == 0 {
			if m.message == wmRunCalls {
				s.drainCalls()
				continue
			}
			dispatch(Message{Msg: m.message, WParam: m.wParam, LParam: m.lParam})
			continue
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *System) drainCalls() {
	for {
		select {
		case fn := <-s.calls:
			fn()
		default:
			return
		}
	}
}

// Do runs fn on the loop thread and waits for it. Called from the loop
// thread itself, fn runs immediately.
func (s *System) Do(fn func()) error {
	select {
	case <-s.ready:
	case <-s.done:
		return ErrLoopStopped
	}
	tid := s.threadID.Load()
	if windows.GetCurrentThreadId() == tid {
		fn()
		return nil
	}

	finished := make(chan struct{})
	select {
	case s.calls <- func() { defer close(finished); fn() }:
	case <-s.done:
		return ErrLoopStopped
	}
	if err := postThreadMessage(tid, wmRunCalls); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrLoopStopped
	}
}

func (s *System) onLoopThread() bool {
	tid := s.threadID.Load()
	return tid != 0 && windows.GetCurrentThreadId() == tid
}

func (s *System) RegisterHotKey(id int, modifiers, vk uint32) error {
	if !s.onLoopThread() {
		return ErrNotOnLoopThread
	}
	r, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(modifiers), uintptr(vk))
	if r == 0 {
		return callError("RegisterHotKey", err)
	}
	return nil
}

func (s *System) UnregisterHotKey(id int) error {
	if !s.onLoopThread() {
		return ErrNotOnLoopThread
	}
	r, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	if r == 0 {
		return callError("UnregisterHotKey", err)
	}
	return nil
}

func (s *System) KeyPressed(vk uint32) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}

// activeMouseProc is read by the hook callback. Win32 callbacks cannot be
// released, so one trampoline serves the process.
var (
	activeMouseProc atomic.Pointer[MouseProc]
	mouseCallback   = windows.NewCallback(lowLevelMouseProc)
)

func lowLevelMouseProc(nCode, wParam, lParam uintptr) uintptr {
	if proc := activeMouseProc.Load(); proc != nil {
		ev := MouseEvent{Code: int32(nCode), Message: uint32(wParam)}
		if ev.Code >= 0 && lParam != 0 {
			ev.MouseData = (*msllHookStruct)(unsafe.Pointer(lParam)).mouseData
		}
		(*proc)(ev)
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

type hookThread struct {
	handle   HookHandle
	threadID uint32
	done     chan struct{}
}

type hookReady struct {
	handle   HookHandle
	threadID uint32
	err      error
}

func (s *System) InstallMouseHook(proc MouseProc) (HookHandle, error) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if s.hook != nil {
		return 0, errors.New("mouse hook already installed")
	}

	activeMouseProc.Store(&proc)
	readyCh := make(chan hookReady, 1)
	done := make(chan struct{})
	go runMouseHook(readyCh, done)

	ready := <-readyCh
	if ready.err != nil {
		activeMouseProc.Store(nil)
		return 0, ready.err
	}
	s.hook = &hookThread{handle: ready.handle, threadID: ready.threadID, done: done}
	return ready.handle, nil
}

func (s *System) UninstallMouseHook(h HookHandle) error {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	if s.hook == nil || s.hook.handle != h {
		return errors.New("unknown mouse hook handle")
	}
	ht := s.hook
	s.hook = nil
	activeMouseProc.Store(nil)

	if err := postThreadMessage(ht.threadID, wmQuit); err != nil {
		return err
	}
	select {
	case <-ht.done:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("mouse hook thread %d did not exit", ht.threadID)
	}
}

// runMouseHook installs WH_MOUSE_LL on a dedicated thread and pumps its
// queue, which low-level hooks require, until WM_QUIT.
func runMouseHook(readyCh chan<- hookReady, done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	tid := windows.GetCurrentThreadId()
	var m winMsg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		readyCh <- hookReady{err: fmt.Errorf("GetModuleHandleEx: %w", err)}
		return
	}
	h, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseCallback, uintptr(module), 0)
	if h == 0 {
		readyCh <- hookReady{err: callError("SetWindowsHookExW", err)}
		return
	}
	defer procUnhookWindowsHookEx.Call(h)

	readyCh <- hookReady{handle: HookHandle(h), threadID: tid}

	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func postThreadMessage(tid uint32, msg uint32) error {
	r, _, err := procPostThreadMessageW.Call(uintptr(tid), uintptr(msg), 0, 0)
	if r == 0 {
		return callError("PostThreadMessageW", err)
	}
	return nil
}

func callError(name string, err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno == 0 {
		return fmt.Errorf("%s failed", name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
