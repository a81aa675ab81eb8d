package hotkey

import "strings"

// Modifiers is the set of modifier keys a trigger requires.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModWin
)

// Has reports whether every modifier in m2 is set in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// String renders the modifiers in canonical order, joined with "+".
func (m Modifiers) String() string {
	return strings.Join(m.parts(), "+")
}

func (m Modifiers) parts() []string {
	parts := make([]string, 0, 4)
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModWin) {
		parts = append(parts, "Win")
	}
	return parts
}

// Kind says whether the main input of a trigger is a key or a mouse button.
type Kind uint8

const (
	KindKeyboard Kind = iota
	KindMouse
)

func (k Kind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindMouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// MouseButton identifies a mouse button that can complete a trigger.
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "MouseLeft"
	case ButtonRight:
		return "MouseRight"
	case ButtonMiddle:
		return "MouseMiddle"
	case ButtonX1:
		return "MouseX1"
	case ButtonX2:
		return "MouseX2"
	default:
		return "Mouse?"
	}
}

// Trigger is a parsed global shortcut. Values are immutable and comparable;
// build them with Parse.
type Trigger struct {
	modifiers Modifiers
	kind      Kind
	key       uint32 // virtual-key code, KindKeyboard only
	button    MouseButton
	display   string
}

func newKeyboardTrigger(mods Modifiers, vk uint32) Trigger {
	t := Trigger{modifiers: mods, kind: KindKeyboard, key: vk}
	t.display = joinDisplay(mods, keyDisplay(vk))
	return t
}

func newMouseTrigger(mods Modifiers, b MouseButton) Trigger {
	t := Trigger{modifiers: mods, kind: KindMouse, button: b}
	t.display = joinDisplay(mods, b.String())
	return t
}

func joinDisplay(mods Modifiers, main string) string {
	return strings.Join(append(mods.parts(), main), "+")
}

// Modifiers returns the required modifier set.
func (t Trigger) Modifiers() Modifiers { return t.modifiers }

// Kind returns whether the main input is a key or a mouse button.
func (t Trigger) Kind() Kind { return t.kind }

// Key returns the virtual-key code of a keyboard trigger.
func (t Trigger) Key() uint32 { return t.key }

// Button returns the mouse button of a mouse trigger.
func (t Trigger) Button() MouseButton { return t.button }

// String returns the canonical display form, e.g. "Ctrl+Shift+V".
func (t Trigger) String() string { return t.display }

// IsZero reports whether t was never set.
func (t Trigger) IsZero() bool { return t.display == "" }
