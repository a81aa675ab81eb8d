package hotkey

import (
	"context"
	"errors"
	"sync"
)

// FakePlatform is an in-memory Platform and Loop. It records registrations,
// can be told to reject them, and lets tests drive the mouse hook and the
// message loop directly.
type FakePlatform struct {
	mu sync.Mutex

	// RejectKeys holds virtual-key codes whose registration fails.
	RejectKeys map[uint32]bool
	// RejectMouse makes InstallMouseHook fail.
	RejectMouse bool
	// RejectRelease makes UnregisterHotKey and UninstallMouseHook fail.
	RejectRelease bool

	hotkeys   map[int]fakeHotkey
	hookProc  MouseProc
	hook      HookHandle
	nextHook  HookHandle
	held      map[uint32]bool
	installs  int
	uninstall int

	dispatch func(Message)
}

type fakeHotkey struct {
	Modifiers uint32
	Key       uint32
}

var errFakeRejected = errors.New("hot key is already registered")

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		RejectKeys: map[uint32]bool{},
		hotkeys:    map[int]fakeHotkey{},
		held:       map[uint32]bool{},
	}
}

func (f *FakePlatform) RegisterHotKey(id int, modifiers, vk uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectKeys[vk] {
		return errFakeRejected
	}
	if _, ok := f.hotkeys[id]; ok {
		return errFakeRejected
	}
	f.hotkeys[id] = fakeHotkey{Modifiers: modifiers, Key: vk}
	return nil
}

func (f *FakePlatform) UnregisterHotKey(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectRelease {
		return errors.New("UnregisterHotKey failed")
	}
	if _, ok := f.hotkeys[id]; !ok {
		return errors.New("hot key is not registered")
	}
	delete(f.hotkeys, id)
	return nil
}

func (f *FakePlatform) InstallMouseHook(proc MouseProc) (HookHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectMouse {
		return 0, errors.New("SetWindowsHookEx failed")
	}
	f.nextHook++
	f.hook = f.nextHook
	f.hookProc = proc
	f.installs++
	return f.hook, nil
}

func (f *FakePlatform) UninstallMouseHook(h HookHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RejectRelease {
		return errors.New("UnhookWindowsHookEx failed")
	}
	if h == 0 || h != f.hook {
		return errors.New("invalid hook handle")
	}
	f.hook = 0
	f.hookProc = nil
	f.uninstall++
	return nil
}

func (f *FakePlatform) KeyPressed(vk uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[vk]
}

// Hold marks the given virtual keys as pressed, releasing all others.
func (f *FakePlatform) Hold(vks ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = map[uint32]bool{}
	for _, vk := range vks {
		f.held[vk] = true
	}
}

// HoldModifiers presses the virtual keys for mods, releasing all others.
func (f *FakePlatform) HoldModifiers(mods Modifiers) {
	var vks []uint32
	if mods.Has(ModCtrl) {
		vks = append(vks, vkControl)
	}
	if mods.Has(ModAlt) {
		vks = append(vks, vkMenu)
	}
	if mods.Has(ModShift) {
		vks = append(vks, vkShift)
	}
	if mods.Has(ModWin) {
		vks = append(vks, vkLWin)
	}
	f.Hold(vks...)
}

// SimMouse delivers ev to the installed hook procedure, if any, the way a
// hook thread would.
func (f *FakePlatform) SimMouse(ev MouseEvent) {
	f.mu.Lock()
	proc := f.hookProc
	f.mu.Unlock()
	if proc != nil {
		proc(ev)
	}
}

// SimButtonDown delivers a button-down event for b.
func (f *FakePlatform) SimButtonDown(b MouseButton) {
	f.SimMouse(ButtonDownEvent(b))
}

// SimHotkey posts the WM_HOTKEY message for the registered keyboard
// shortcut to the running loop.
func (f *FakePlatform) SimHotkey() {
	f.mu.Lock()
	dispatch := f.dispatch
	_, ok := f.hotkeys[hotkeyID]
	f.mu.Unlock()
	if dispatch != nil && ok {
		dispatch(Message{Msg: MsgHotkey, WParam: hotkeyID})
	}
}

// HotKeys returns the number of registered keyboard shortcuts.
func (f *FakePlatform) HotKeys() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hotkeys)
}

// RegisteredHotKey returns the MOD_* flags and key of a registration.
func (f *FakePlatform) RegisteredHotKey(id int) (modifiers, vk uint32, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hk, ok := f.hotkeys[id]
	return hk.Modifiers, hk.Key, ok
}

// HookInstalled reports whether a mouse hook is installed.
func (f *FakePlatform) HookInstalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hook != 0
}

// Run records dispatch and blocks until ctx is done.
func (f *FakePlatform) Run(ctx context.Context, dispatch func(Message)) error {
	f.mu.Lock()
	f.dispatch = dispatch
	f.mu.Unlock()
	<-ctx.Done()
	f.mu.Lock()
	f.dispatch = nil
	f.mu.Unlock()
	return nil
}

// Do runs fn on the calling goroutine.
func (f *FakePlatform) Do(fn func()) error {
	fn()
	return nil
}
