//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
	btnSide   = 0x113
	btnExtra  = 0x114
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

var evdevButtons = map[uint16]MouseButton{
	btnLeft:   ButtonLeft,
	btnRight:  ButtonRight,
	btnMiddle: ButtonMiddle,
	btnSide:   ButtonX1,
	btnExtra:  ButtonX2,
}

// evdevModifierCodes lists the evdev keys behind each modifier virtual key.
var evdevModifierCodes = map[uint32][]uint16{
	vkControl:  {keyLeftCtrl, keyRightCtrl},
	vkLControl: {keyLeftCtrl},
	vkRControl: {keyRightCtrl},
	vkShift:    {keyLeftShift, keyRightShift},
	vkLShift:   {keyLeftShift},
	vkRShift:   {keyRightShift},
	vkMenu:     {keyLeftAlt, keyRightAlt},
	vkLMenu:    {keyLeftAlt},
	vkRMenu:    {keyRightAlt},
	vkLWin:     {keyLeftMeta},
	vkRWin:     {keyRightMeta},
}

// evdevBinding is one registered keyboard shortcut.
type evdevBinding struct {
	id   int
	mods Modifiers
	code uint16
	post func(Message)
}

// evdevInput reads /dev/input directly and backs both keyboard shortcuts
// and the mouse hook. It needs the user in the 'input' group. Devices stay
// open while any shortcut or hook is registered; held keys are only known
// while they are open.
type evdevInput struct {
	open func() ([]*os.File, error)

	mu    sync.Mutex
	files []*os.File
	wg    sync.WaitGroup
	users int

	handle HookHandle
	next   HookHandle
	proc   atomic.Pointer[MouseProc]

	// Replaced, never mutated, so readers need no lock.
	bindings atomic.Pointer[[]evdevBinding]

	held [256]atomic.Bool
}

func newBackends() (keyBackend, mouseBackend) {
	in := newEvdevInput(openInputDevices)
	return in, in
}

func newEvdevInput(open func() ([]*os.File, error)) *evdevInput {
	in := &evdevInput{open: open}
	in.bindings.Store(&[]evdevBinding{})
	return in
}

// acquire opens the input devices for the first user. Called with mu held.
func (in *evdevInput) acquire() error {
	if in.users == 0 {
		files, err := in.open()
		if err != nil {
			return err
		}
		in.files = files
		for _, f := range files {
			in.wg.Add(1)
			go in.readEvents(f)
		}
	}
	in.users++
	return nil
}

// release closes the devices after the last user. Called with mu held.
func (in *evdevInput) release() {
	in.users--
	if in.users > 0 {
		return
	}
	for _, f := range in.files {
		f.Close()
	}
	in.wg.Wait()
	in.files = nil
	for i := range in.held {
		in.held[i].Store(false)
	}
}

func (in *evdevInput) register(id int, modifiers, vk uint32, post func(Message)) error {
	code, ok := evdevKeyCodes[vk]
	if !ok {
		return fmt.Errorf("key %s has no evdev code", keyDisplay(vk))
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	current := *in.bindings.Load()
	for _, b := range current {
		if b.id == id {
			return fmt.Errorf("hotkey id %d already registered", id)
		}
	}
	if err := in.acquire(); err != nil {
		return err
	}

	next := append(append([]evdevBinding(nil), current...), evdevBinding{
		id:   id,
		mods: modifiersFromFlags(modifiers),
		code: code,
		post: post,
	})
	in.bindings.Store(&next)
	return nil
}

func (in *evdevInput) unregister(id int) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	current := *in.bindings.Load()
	next := make([]evdevBinding, 0, len(current))
	for _, b := range current {
		if b.id != id {
			next = append(next, b)
		}
	}
	if len(next) == len(current) {
		return fmt.Errorf("hotkey id %d not registered", id)
	}
	in.bindings.Store(&next)
	in.release()
	return nil
}

func (in *evdevInput) install(proc MouseProc) (HookHandle, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.handle != 0 {
		return 0, errors.New("mouse hook already installed")
	}
	if err := in.acquire(); err != nil {
		return 0, err
	}
	in.proc.Store(&proc)
	in.next++
	in.handle = in.next
	return in.handle, nil
}

func (in *evdevInput) uninstall(h HookHandle) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.handle == 0 || h != in.handle {
		return errors.New("unknown mouse hook handle")
	}
	in.proc.Store(nil)
	in.handle = 0
	in.release()
	return nil
}

func (in *evdevInput) keyPressed(vk uint32) bool {
	for _, code := range evdevModifierCodes[vk] {
		if in.held[code].Load() {
			return true
		}
	}
	return false
}

func (in *evdevInput) heldModifiers() Modifiers {
	var held Modifiers
	if in.keyPressed(vkControl) {
		held |= ModCtrl
	}
	if in.keyPressed(vkMenu) {
		held |= ModAlt
	}
	if in.keyPressed(vkShift) {
		held |= ModShift
	}
	if in.keyPressed(vkLWin) || in.keyPressed(vkRWin) {
		held |= ModWin
	}
	return held
}

func (in *evdevInput) readEvents(f *os.File) {
	defer in.wg.Done()
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))
			if evType != evKey {
				continue
			}
			in.handleKey(evCode, evValue)
		}
	}
}

// handleKey tracks held keys, fires keyboard shortcuts on key-down (never
// on autorepeat) and turns button presses into hook events.
func (in *evdevInput) handleKey(code uint16, value int32) {
	if int(code) < len(in.held) {
		switch value {
		case keyPress:
			in.held[code].Store(true)
		case keyRelease:
			in.held[code].Store(false)
			return
		default:
			return
		}
		bindings := *in.bindings.Load()
		if len(bindings) == 0 {
			return
		}
		mods := in.heldModifiers()
		for _, b := range bindings {
			if b.code == code && b.mods == mods {
				b.post(Message{Msg: MsgHotkey, WParam: uintptr(b.id)})
			}
		}
		return
	}
	b, ok := evdevButtons[code]
	if !ok || value != keyPress {
		return
	}
	if proc := in.proc.Load(); proc != nil {
		(*proc)(ButtonDownEvent(b))
	}
}

// openInputDevices opens every event device reporting key or button
// capabilities: keyboards for shortcuts and modifier state, mice for
// buttons.
func openInputDevices() ([]*os.File, error) {
	devices, err := findInputDevices()
	if err != nil {
		return nil, fmt.Errorf("finding input devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no input devices found (is user in 'input' group?)")
	}
	var files []*os.File
	for _, path := range devices {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("could not open any input device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return files, nil
}

func findInputDevices() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}
	var devices []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		capsPath := filepath.Join("/sys/class/input", e.Name(), "device", "capabilities", "key")
		data, err := os.ReadFile(capsPath)
		if err != nil {
			continue
		}
		if caps := strings.TrimSpace(string(data)); caps == "" || caps == "0" {
			continue
		}
		devices = append(devices, filepath.Join("/dev/input", e.Name()))
	}
	return devices, nil
}

// modifiersFromFlags decodes MOD_* flags.
func modifiersFromFlags(flags uint32) Modifiers {
	var mods Modifiers
	if flags&modControl != 0 {
		mods |= ModCtrl
	}
	if flags&modAlt != 0 {
		mods |= ModAlt
	}
	if flags&modShift != 0 {
		mods |= ModShift
	}
	if flags&modWin != 0 {
		mods |= ModWin
	}
	return mods
}

// evdevKeyCodes maps virtual keys to Linux input key codes.
var evdevKeyCodes = func() map[uint32]uint16 {
	m := map[uint32]uint16{
		0x08: 14,  // Back
		0x09: 15,  // Tab
		0x0D: 28,  // Return
		0x13: 119, // Pause
		0x14: 58,  // CapsLock
		0x1B: 1,   // Escape
		0x20: 57,  // Space
		0x21: 104, // PageUp
		0x22: 109, // PageDown
		0x23: 107, // End
		0x24: 102, // Home
		0x25: 105, // Left
		0x26: 103, // Up
		0x27: 106, // Right
		0x28: 108, // Down
		0x2C: 99,  // PrintScreen
		0x2D: 110, // Insert
		0x2E: 111, // Delete
		0x5D: 127, // Apps
		0x6A: 55,  // Multiply
		0x6B: 78,  // Add
		0x6D: 74,  // Subtract
		0x6E: 83,  // Decimal
		0x6F: 98,  // Divide
		0x90: 69,  // NumLock
		0x91: 70,  // Scroll
		0xAD: 113, // VolumeMute
		0xAE: 114, // VolumeDown
		0xAF: 115, // VolumeUp
		0xB0: 163, // MediaNextTrack
		0xB1: 165, // MediaPreviousTrack
		0xB2: 166, // MediaStop
		0xB3: 164, // MediaPlayPause
		0xBA: 39,  // OemSemicolon
		0xBB: 13,  // Oemplus
		0xBC: 51,  // Oemcomma
		0xBD: 12,  // OemMinus
		0xBE: 52,  // OemPeriod
		0xBF: 53,  // OemQuestion
		0xC0: 41,  // Oemtilde
		0xDB: 26,  // OemOpenBrackets
		0xDC: 43,  // OemPipe
		0xDD: 27,  // OemCloseBrackets
		0xDE: 40,  // OemQuotes
		0xE2: 86,  // OemBackslash
	}
	// Rows of the US layout, in virtual-key order.
	letters := []uint16{
		30, 48, 46, 32, 18, 33, 34, 35, 23, 36, 37, 38, 50, // A..M
		49, 24, 25, 16, 19, 31, 20, 22, 47, 17, 45, 21, 44, // N..Z
	}
	for i, code := range letters {
		m[uint32('A'+i)] = code
	}
	m['0'] = 11
	for d := uint32(1); d <= 9; d++ {
		m['0'+d] = uint16(1 + d)
	}
	numpad := []uint16{82, 79, 80, 81, 75, 76, 77, 71, 72, 73}
	for i, code := range numpad {
		m[0x60+uint32(i)] = code
	}
	for n := uint32(0); n < 10; n++ {
		m[0x70+n] = uint16(59 + n) // F1..F10
	}
	m[0x7A] = 87 // F11
	m[0x7B] = 88 // F12
	for n := uint32(0); n < 12; n++ {
		m[0x7C+n] = uint16(183 + n) // F13..F24
	}
	return m
}()
