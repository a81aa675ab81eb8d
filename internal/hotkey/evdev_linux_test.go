//go:build linux

package hotkey

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// pipeDevices hands out pipes in place of /dev/input devices. Each open
// creates a fresh pipe; writes go to the newest one.
type pipeDevices struct {
	mu     sync.Mutex
	opens  int
	writer *os.File
}

func (p *pipeDevices) open() ([]*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.opens++
	p.writer = w
	p.mu.Unlock()
	return []*os.File{r}, nil
}

func (p *pipeDevices) send(t *testing.T, code uint16, value int32) {
	t.Helper()
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:], evKey)
	binary.LittleEndian.PutUint16(buf[18:], code)
	binary.LittleEndian.PutUint32(buf[20:], uint32(value))
	p.mu.Lock()
	w := p.writer
	p.mu.Unlock()
	if _, err := w.Write(buf); err != nil {
		t.Fatalf("write event: %v", err)
	}
}

func noDevices() ([]*os.File, error) {
	return nil, errors.New("no input devices found")
}

func systemWith(in *evdevInput) *System {
	s := NewSystem()
	s.keys = in
	s.mouse = in
	return s
}

func TestEvdevModifierTracking(t *testing.T) {
	in := newEvdevInput(noDevices)
	in.handleKey(keyRightCtrl, keyPress)
	in.handleKey(keyLeftMeta, keyPress)

	if !in.keyPressed(vkControl) || !in.keyPressed(vkRControl) {
		t.Error("right ctrl not reported as control")
	}
	if in.keyPressed(vkLControl) {
		t.Error("left ctrl reported while only right ctrl held")
	}
	if got := ModifierState(systemWith(in)); got != ModCtrl|ModWin {
		t.Errorf("ModifierState = %v, want Ctrl+Win", got)
	}

	in.handleKey(keyRightCtrl, keyRelease)
	if in.keyPressed(vkControl) {
		t.Error("control still held after release")
	}
}

func TestEvdevButtonsBecomeHookEvents(t *testing.T) {
	in := newEvdevInput(noDevices)
	var got []MouseButton
	proc := MouseProc(func(ev MouseEvent) {
		if b, ok := buttonFromEvent(ev); ok {
			got = append(got, b)
		}
	})
	in.proc.Store(&proc)

	in.handleKey(btnSide, keyPress)
	in.handleKey(btnSide, keyRelease)
	in.handleKey(btnExtra, 2) // autorepeat
	in.handleKey(btnMiddle, keyPress)

	want := []MouseButton{ButtonX1, ButtonMiddle}
	if len(got) != len(want) {
		t.Fatalf("buttons = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("button %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEvdevKeyboardMatching(t *testing.T) {
	const keyV = 47

	tests := []struct {
		name  string
		held  []uint16
		value int32
		want  int
	}{
		{"exact modifiers", []uint16{keyLeftCtrl, keyRightShift}, keyPress, 1},
		{"autorepeat ignored", []uint16{keyLeftCtrl, keyLeftShift}, 2, 0},
		{"release ignored", []uint16{keyLeftCtrl, keyLeftShift}, keyRelease, 0},
		{"missing modifier", []uint16{keyLeftCtrl}, keyPress, 0},
		{"extra modifier", []uint16{keyLeftCtrl, keyLeftShift, keyLeftAlt}, keyPress, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &pipeDevices{}
			in := newEvdevInput(p.open)
			var fired []Message
			post := func(m Message) { fired = append(fired, m) }
			if err := in.register(hotkeyID, modControl|modShift|modNoRepeat, 'V', post); err != nil {
				t.Fatalf("register: %v", err)
			}
			defer in.unregister(hotkeyID)

			for _, code := range tt.held {
				in.handleKey(code, keyPress)
			}
			in.handleKey(keyV, tt.value)

			if len(fired) != tt.want {
				t.Fatalf("fired %d times, want %d", len(fired), tt.want)
			}
			if tt.want > 0 && (fired[0].Msg != MsgHotkey || fired[0].WParam != hotkeyID) {
				t.Errorf("posted %+v", fired[0])
			}
		})
	}
}

func TestEvdevShortcutReachesManager(t *testing.T) {
	p := &pipeDevices{}
	s := systemWith(newEvdevInput(p.open))
	n := &countingNotifier{}
	m := New(Config{Platform: s, Notifier: n, Shortcut: "Ctrl+F8", Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handled := make(chan bool, 4)
	go s.Run(ctx, func(msg Message) { handled <- m.ProcessMessage(msg) })

	var err error
	if derr := s.Do(func() { err = m.Register() }); derr != nil {
		t.Fatal(derr)
	}
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	p.send(t, keyLeftCtrl, keyPress)
	p.send(t, 66, keyPress) // F8
	select {
	case ok := <-handled:
		if !ok {
			t.Fatal("manager did not handle the hotkey message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("key press never reached the loop")
	}
	if n.n != 1 {
		t.Errorf("notified %d times, want 1", n.n)
	}

	if derr := s.Do(func() { err = m.Close() }); derr != nil || err != nil {
		t.Fatalf("Close: %v / %v", derr, err)
	}
}

func TestEvdevRegistrationFailures(t *testing.T) {
	t.Run("no devices", func(t *testing.T) {
		m := New(Config{Platform: systemWith(newEvdevInput(noDevices)), Shortcut: "Ctrl+Shift+V", Logger: zerolog.Nop()})
		if err := m.Register(); !errors.Is(err, ErrRegistration) {
			t.Fatalf("Register = %v, want ErrRegistration", err)
		}
		if m.Registered() {
			t.Error("Registered() = true without devices")
		}
	})

	t.Run("unmapped key rolls back", func(t *testing.T) {
		p := &pipeDevices{}
		in := newEvdevInput(p.open)
		m := New(Config{Platform: systemWith(in), Shortcut: "Ctrl+Shift+V", Logger: zerolog.Nop()})
		if err := m.Register(); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if err := m.UpdateShortcut("Ctrl+Sleep"); !errors.Is(err, ErrRegistration) {
			t.Fatalf("UpdateShortcut = %v, want ErrRegistration", err)
		}
		if m.Shortcut() != "Ctrl+Shift+V" || !m.Registered() {
			t.Errorf("after rollback: %q registered=%v", m.Shortcut(), m.Registered())
		}
		if bindings := *in.bindings.Load(); len(bindings) != 1 {
			t.Errorf("bindings = %d, want 1", len(bindings))
		}
		m.Close()
	})

	t.Run("devices shared by keyboard and mouse", func(t *testing.T) {
		p := &pipeDevices{}
		in := newEvdevInput(p.open)
		if err := in.register(hotkeyID, modNoRepeat, 'A', func(Message) {}); err != nil {
			t.Fatal(err)
		}
		h, err := in.install(func(MouseEvent) {})
		if err != nil {
			t.Fatal(err)
		}
		if p.opens != 1 {
			t.Errorf("devices opened %d times, want 1", p.opens)
		}
		in.unregister(hotkeyID)
		in.uninstall(h)
		if in.users != 0 || in.files != nil {
			t.Errorf("devices still open: users=%d", in.users)
		}
	})
}
