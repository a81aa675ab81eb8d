//go:build windows

package hotkey

import (
	"testing"
	"unsafe"
)

func TestWinMsgLayout(t *testing.T) {
	want := uintptr(48)
	if unsafe.Sizeof(uintptr(0)) == 4 {
		want = 32
	}
	if got := unsafe.Sizeof(winMsg{}); got != want {
		t.Errorf("sizeof(winMsg) = %d, want %d", got, want)
	}
}
