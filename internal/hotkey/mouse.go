package hotkey

// mouseFilter watches the system-wide mouse stream for the active mouse
// trigger. The OS hotkey facility only accepts keyboard combinations, so
// mouse triggers are matched here against live modifier state.
type mouseFilter struct {
	platform Platform
	active   func() (Trigger, bool) // current trigger, and whether it is armed
	notify   Notifier
	handle   HookHandle
}

func (f *mouseFilter) install() error {
	h, err := f.platform.InstallMouseHook(f.filter)
	if err != nil {
		return err
	}
	f.handle = h
	return nil
}

func (f *mouseFilter) uninstall() error {
	if f.handle == 0 {
		return nil
	}
	if err := f.platform.UninstallMouseHook(f.handle); err != nil {
		return err
	}
	f.handle = 0
	return nil
}

// filter is the hook procedure. It only reads state and compares values.
func (f *mouseFilter) filter(ev MouseEvent) {
	if ev.Code < 0 {
		return
	}
	button, ok := buttonFromEvent(ev)
	if !ok {
		return
	}
	t, armed := f.active()
	if !armed || t.Kind() != KindMouse || button != t.Button() {
		return
	}
	if !modifiersMatch(f.platform, t.Modifiers()) {
		return
	}
	f.notify.TriggerFired()
}

// buttonFromEvent maps a button-down message to a MouseButton.
func buttonFromEvent(ev MouseEvent) (MouseButton, bool) {
	switch ev.Message {
	case msgLButtonDown:
		return ButtonLeft, true
	case msgRButtonDown:
		return ButtonRight, true
	case msgMButtonDown:
		return ButtonMiddle, true
	case msgXButtonDown:
		switch (ev.MouseData >> 16) & 0xFFFF {
		case xButton1:
			return ButtonX1, true
		case xButton2:
			return ButtonX2, true
		}
	}
	return 0, false
}

// ButtonDownEvent builds the low-level event a hook sees for a press of b.
func ButtonDownEvent(b MouseButton) MouseEvent {
	switch b {
	case ButtonRight:
		return MouseEvent{Message: msgRButtonDown}
	case ButtonMiddle:
		return MouseEvent{Message: msgMButtonDown}
	case ButtonX1:
		return MouseEvent{Message: msgXButtonDown, MouseData: xButton1 << 16}
	case ButtonX2:
		return MouseEvent{Message: msgXButtonDown, MouseData: xButton2 << 16}
	default:
		return MouseEvent{Message: msgLButtonDown}
	}
}

// ModifierState reads which modifiers are held right now.
func ModifierState(p Platform) Modifiers {
	var held Modifiers
	if p.KeyPressed(vkControl) {
		held |= ModCtrl
	}
	if p.KeyPressed(vkMenu) {
		held |= ModAlt
	}
	if p.KeyPressed(vkShift) {
		held |= ModShift
	}
	if p.KeyPressed(vkLWin) || p.KeyPressed(vkRWin) {
		held |= ModWin
	}
	return held
}

// modifiersMatch requires the held modifiers to equal want exactly: an
// extra held modifier is a mismatch.
func modifiersMatch(p Platform, want Modifiers) bool {
	return ModifierState(p) == want
}
