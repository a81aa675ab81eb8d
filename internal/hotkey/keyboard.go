package hotkey

// Win32 RegisterHotKey modifier flags.
const (
	modAlt      uint32 = 0x0001
	modControl  uint32 = 0x0002
	modShift    uint32 = 0x0004
	modWin      uint32 = 0x0008
	modNoRepeat uint32 = 0x4000
)

// hotkeyID is the registration identifier. Only one keyboard shortcut is
// registered at a time.
const hotkeyID = 9000

// modifierFlags encodes mods as MOD_* flags, always including MOD_NOREPEAT.
func modifierFlags(mods Modifiers) uint32 {
	flags := modNoRepeat
	if mods.Has(ModCtrl) {
		flags |= modControl
	}
	if mods.Has(ModAlt) {
		flags |= modAlt
	}
	if mods.Has(ModShift) {
		flags |= modShift
	}
	if mods.Has(ModWin) {
		flags |= modWin
	}
	return flags
}

// keyboardRegistration registers keyboard triggers with the OS hotkey
// facility. Notifications arrive as MsgHotkey messages on the host loop.
type keyboardRegistration struct {
	platform   Platform
	registered bool
}

func (k *keyboardRegistration) register(t Trigger) error {
	if err := k.platform.RegisterHotKey(hotkeyID, modifierFlags(t.Modifiers()), t.Key()); err != nil {
		return err
	}
	k.registered = true
	return nil
}

func (k *keyboardRegistration) unregister() error {
	if !k.registered {
		return nil
	}
	if err := k.platform.UnregisterHotKey(hotkeyID); err != nil {
		return err
	}
	k.registered = false
	return nil
}

// isTriggerMessage reports whether msg is the notification for our
// registration.
func isTriggerMessage(msg Message) bool {
	return msg.Msg == MsgHotkey && msg.WParam == hotkeyID
}
