//go:build !windows

package hotkey

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSystemLoopDoAndDispatch(t *testing.T) {
	s := NewSystem()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Message, 1)
	runErr := make(chan error, 1)
	go func() {
		runErr <- s.Run(ctx, func(m Message) { got <- m })
	}()

	ran := false
	if err := s.Do(func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatal("Do returned before fn ran")
	}

	s.post(Message{Msg: MsgHotkey, WParam: hotkeyID})
	select {
	case m := <-got:
		if m.Msg != MsgHotkey || m.WParam != hotkeyID {
			t.Errorf("dispatched %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("posted message never dispatched")
	}

	cancel()
	if err := <-runErr; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Do(func() {}); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Do after stop = %v, want ErrLoopStopped", err)
	}
}
