//go:build darwin

package hotkey

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"
)

// xKeys registers keyboard shortcuts through golang.design/x/hotkey.
type xKeys struct {
	mu   sync.Mutex
	regs map[int]*xRegistration
}

type xRegistration struct {
	hk   *xhotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

// Carbon hotkeys for the keyboard; there is no global mouse stream without
// an event tap.
func newBackends() (keyBackend, mouseBackend) {
	return &xKeys{regs: make(map[int]*xRegistration)}, unsupportedMouse{}
}

func (x *xKeys) register(id int, modifiers, vk uint32, post func(Message)) error {
	key, ok := xKeyByVK[vk]
	if !ok {
		return fmt.Errorf("key %s has no mapping on this platform", keyDisplay(vk))
	}
	mods := xModifiers(modifiers)

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.regs[id]; exists {
		return fmt.Errorf("hotkey id %d already registered", id)
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return err
	}
	reg := &xRegistration{hk: hk, stop: make(chan struct{}), done: make(chan struct{})}
	x.regs[id] = reg

	go func() {
		defer close(reg.done)
		for {
			select {
			case <-reg.stop:
				return
			case <-hk.Keydown():
				post(Message{Msg: MsgHotkey, WParam: uintptr(id)})
			}
		}
	}()
	return nil
}

func (x *xKeys) unregister(id int) error {
	x.mu.Lock()
	reg, ok := x.regs[id]
	delete(x.regs, id)
	x.mu.Unlock()
	if !ok {
		return fmt.Errorf("hotkey id %d not registered", id)
	}
	close(reg.stop)
	<-reg.done
	return reg.hk.Unregister()
}

var xKeyByVK = func() map[uint32]xhotkey.Key {
	m := map[uint32]xhotkey.Key{
		0x20: xhotkey.KeySpace,
		0x0D: xhotkey.KeyReturn,
		0x1B: xhotkey.KeyEscape,
		0x08: xhotkey.KeyDelete, // the Mac Delete key is backspace
		0x09: xhotkey.KeyTab,
		0x25: xhotkey.KeyLeft,
		0x26: xhotkey.KeyUp,
		0x27: xhotkey.KeyRight,
		0x28: xhotkey.KeyDown,
	}
	letters := []xhotkey.Key{
		xhotkey.KeyA, xhotkey.KeyB, xhotkey.KeyC, xhotkey.KeyD, xhotkey.KeyE, xhotkey.KeyF,
		xhotkey.KeyG, xhotkey.KeyH, xhotkey.KeyI, xhotkey.KeyJ, xhotkey.KeyK, xhotkey.KeyL,
		xhotkey.KeyM, xhotkey.KeyN, xhotkey.KeyO, xhotkey.KeyP, xhotkey.KeyQ, xhotkey.KeyR,
		xhotkey.KeyS, xhotkey.KeyT, xhotkey.KeyU, xhotkey.KeyV, xhotkey.KeyW, xhotkey.KeyX,
		xhotkey.KeyY, xhotkey.KeyZ,
	}
	for i, k := range letters {
		m[uint32('A'+i)] = k
	}
	digits := []xhotkey.Key{
		xhotkey.Key0, xhotkey.Key1, xhotkey.Key2, xhotkey.Key3, xhotkey.Key4,
		xhotkey.Key5, xhotkey.Key6, xhotkey.Key7, xhotkey.Key8, xhotkey.Key9,
	}
	for i, k := range digits {
		m[uint32('0'+i)] = k
	}
	fkeys := []xhotkey.Key{
		xhotkey.KeyF1, xhotkey.KeyF2, xhotkey.KeyF3, xhotkey.KeyF4, xhotkey.KeyF5,
		xhotkey.KeyF6, xhotkey.KeyF7, xhotkey.KeyF8, xhotkey.KeyF9, xhotkey.KeyF10,
		xhotkey.KeyF11, xhotkey.KeyF12, xhotkey.KeyF13, xhotkey.KeyF14, xhotkey.KeyF15,
		xhotkey.KeyF16, xhotkey.KeyF17, xhotkey.KeyF18, xhotkey.KeyF19, xhotkey.KeyF20,
	}
	for i, k := range fkeys {
		m[uint32(0x70+i)] = k
	}
	return m
}()

// Alt is Option and Win is Command on macOS.
func xModifiers(flags uint32) []xhotkey.Modifier {
	var mods []xhotkey.Modifier
	if flags&modControl != 0 {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if flags&modAlt != 0 {
		mods = append(mods, xhotkey.ModOption)
	}
	if flags&modShift != 0 {
		mods = append(mods, xhotkey.ModShift)
	}
	if flags&modWin != 0 {
		mods = append(mods, xhotkey.ModCmd)
	}
	return mods
}
