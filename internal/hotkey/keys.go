package hotkey

import (
	"strconv"
	"strings"
)

// Windows virtual-key codes used outside the name table.
const (
	vkShift    uint32 = 0x10
	vkControl  uint32 = 0x11
	vkMenu     uint32 = 0x12
	vkLWin     uint32 = 0x5B
	vkRWin     uint32 = 0x5C
	vkLShift   uint32 = 0xA0
	vkRShift   uint32 = 0xA1
	vkLControl uint32 = 0xA2
	vkRControl uint32 = 0xA3
	vkLMenu    uint32 = 0xA4
	vkRMenu    uint32 = 0xA5
)

// keyTable lists key names and their virtual-key codes. The first name
// registered for a code is its canonical name.
var keyTable = []struct {
	name string
	vk   uint32
}{
	{"Cancel", 0x03},
	{"Back", 0x08},
	{"Backspace", 0x08},
	{"Tab", 0x09},
	{"Clear", 0x0C},
	{"Return", 0x0D},
	{"Enter", 0x0D},
	{"ShiftKey", vkShift},
	{"ControlKey", vkControl},
	{"Menu", vkMenu},
	{"Pause", 0x13},
	{"Capital", 0x14},
	{"CapsLock", 0x14},
	{"Escape", 0x1B},
	{"Esc", 0x1B},
	{"Space", 0x20},
	{"PageUp", 0x21},
	{"Prior", 0x21},
	{"PageDown", 0x22},
	{"Next", 0x22},
	{"End", 0x23},
	{"Home", 0x24},
	{"Left", 0x25},
	{"Up", 0x26},
	{"Right", 0x27},
	{"Down", 0x28},
	{"Select", 0x29},
	{"Print", 0x2A},
	{"Execute", 0x2B},
	{"PrintScreen", 0x2C},
	{"Snapshot", 0x2C},
	{"Insert", 0x2D},
	{"Delete", 0x2E},
	{"Help", 0x2F},
	{"LWin", vkLWin},
	{"RWin", vkRWin},
	{"Apps", 0x5D},
	{"Sleep", 0x5F},
	{"Multiply", 0x6A},
	{"Add", 0x6B},
	{"Separator", 0x6C},
	{"Subtract", 0x6D},
	{"Decimal", 0x6E},
	{"Divide", 0x6F},
	{"NumLock", 0x90},
	{"Scroll", 0x91},
	{"LShiftKey", vkLShift},
	{"RShiftKey", vkRShift},
	{"LControlKey", vkLControl},
	{"RControlKey", vkRControl},
	{"LMenu", vkLMenu},
	{"RMenu", vkRMenu},
	{"BrowserBack", 0xA6},
	{"BrowserForward", 0xA7},
	{"BrowserRefresh", 0xA8},
	{"BrowserStop", 0xA9},
	{"BrowserSearch", 0xAA},
	{"BrowserFavorites", 0xAB},
	{"BrowserHome", 0xAC},
	{"VolumeMute", 0xAD},
	{"VolumeDown", 0xAE},
	{"VolumeUp", 0xAF},
	{"MediaNextTrack", 0xB0},
	{"MediaPreviousTrack", 0xB1},
	{"MediaStop", 0xB2},
	{"MediaPlayPause", 0xB3},
	{"LaunchMail", 0xB4},
	{"SelectMedia", 0xB5},
	{"LaunchApplication1", 0xB6},
	{"LaunchApplication2", 0xB7},
	{"OemSemicolon", 0xBA},
	{"Oem1", 0xBA},
	{"Oemplus", 0xBB},
	{"Oemcomma", 0xBC},
	{"OemMinus", 0xBD},
	{"OemPeriod", 0xBE},
	{"OemQuestion", 0xBF},
	{"Oem2", 0xBF},
	{"Oemtilde", 0xC0},
	{"Oem3", 0xC0},
	{"OemOpenBrackets", 0xDB},
	{"Oem4", 0xDB},
	{"OemPipe", 0xDC},
	{"Oem5", 0xDC},
	{"OemCloseBrackets", 0xDD},
	{"Oem6", 0xDD},
	{"OemQuotes", 0xDE},
	{"Oem7", 0xDE},
	{"Oem8", 0xDF},
	{"OemBackslash", 0xE2},
	{"Oem102", 0xE2},
}

var (
	vkByName = map[string]uint32{}
	nameByVK = map[uint32]string{}
)

func init() {
	add := func(name string, vk uint32) {
		vkByName[strings.ToLower(name)] = vk
		if _, ok := nameByVK[vk]; !ok {
			nameByVK[vk] = name
		}
	}
	for c := 'A'; c <= 'Z'; c++ {
		add(string(c), uint32(c))
	}
	for d := '0'; d <= '9'; d++ {
		add("D"+string(d), uint32(d))
	}
	for n := 0; n <= 9; n++ {
		add("NumPad"+strconv.Itoa(n), 0x60+uint32(n))
	}
	for n := 1; n <= 24; n++ {
		add("F"+strconv.Itoa(n), 0x70+uint32(n-1))
	}
	for _, k := range keyTable {
		add(k.name, k.vk)
	}
}

// lookupKey resolves a key name case-insensitively. A bare digit is
// rewritten to its digit-key name first.
func lookupKey(token string) (uint32, bool) {
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		token = "D" + token
	}
	vk, ok := vkByName[strings.ToLower(token)]
	return vk, ok
}

func isModifierKey(vk uint32) bool {
	switch vk {
	case vkShift, vkControl, vkMenu, vkLWin, vkRWin,
		vkLShift, vkRShift, vkLControl, vkRControl, vkLMenu, vkRMenu:
		return true
	}
	return false
}

// keyDisplay renders a virtual key for the canonical trigger string.
func keyDisplay(vk uint32) string {
	if vk >= '0' && vk <= '9' {
		return string(rune(vk))
	}
	name, ok := nameByVK[vk]
	if !ok {
		return "VK" + strconv.Itoa(int(vk))
	}
	return strings.ToUpper(name)
}

var mouseAliases = map[string]MouseButton{
	"mouseleft":   ButtonLeft,
	"leftmouse":   ButtonLeft,
	"lbutton":     ButtonLeft,
	"mouseright":  ButtonRight,
	"rightmouse":  ButtonRight,
	"rbutton":     ButtonRight,
	"mousemiddle": ButtonMiddle,
	"middlemouse": ButtonMiddle,
	"mbutton":     ButtonMiddle,
	"mousex1":     ButtonX1,
	"xbutton1":    ButtonX1,
	"mousex2":     ButtonX2,
	"xbutton2":    ButtonX2,
}

func lookupMouseButton(token string) (MouseButton, bool) {
	normalized := strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(token))
	b, ok := mouseAliases[strings.ToLower(normalized)]
	return b, ok
}
