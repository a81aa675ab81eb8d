package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyInput        = errors.New("shortcut is empty")
	ErrMissingMainKey    = errors.New("shortcut has no main key")
	ErrMultipleMainKeys  = errors.New("shortcut has more than one main key")
	ErrUnknownMainKey    = errors.New("unsupported main key")
	ErrMainKeyIsModifier = errors.New("main key cannot be Ctrl/Alt/Shift/Win")
)

// ParseError reports why a shortcut string was rejected.
type ParseError struct {
	Input string
	Token string // offending token, if any
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("invalid shortcut %q: %v: %s", e.Input, e.Err, e.Token)
	}
	return fmt.Sprintf("invalid shortcut %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse turns a shortcut like "Ctrl+Shift+V" or "Ctrl+MouseX1" into a
// Trigger. Tokens are case-insensitive; exactly one of them must be a
// non-modifier key or mouse button.
func Parse(text string) (Trigger, error) {
	if strings.TrimSpace(text) == "" {
		return Trigger{}, &ParseError{Input: text, Err: ErrEmptyInput}
	}

	var (
		mods Modifiers
		main string
		seen int
	)
	for _, token := range splitTokens(text) {
		if mod, ok := modifierToken(token); ok {
			mods |= mod
			continue
		}
		seen++
		if seen > 1 {
			return Trigger{}, &ParseError{Input: text, Token: token, Err: ErrMultipleMainKeys}
		}
		main = token
	}
	if seen == 0 {
		return Trigger{}, &ParseError{Input: text, Err: ErrMissingMainKey}
	}

	if button, ok := lookupMouseButton(main); ok {
		return newMouseTrigger(mods, button), nil
	}

	vk, ok := lookupKey(main)
	if !ok {
		return Trigger{}, &ParseError{Input: text, Token: main, Err: ErrUnknownMainKey}
	}
	if isModifierKey(vk) {
		return Trigger{}, &ParseError{Input: text, Token: main, Err: ErrMainKeyIsModifier}
	}
	return newKeyboardTrigger(mods, vk), nil
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(text string) Trigger {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

func modifierToken(token string) (Modifiers, bool) {
	switch strings.ToLower(token) {
	case "ctrl", "control":
		return ModCtrl, true
	case "alt":
		return ModAlt, true
	case "shift":
		return ModShift, true
	case "win", "windows":
		return ModWin, true
	}
	return 0, false
}

func splitTokens(text string) []string {
	raw := strings.Split(text, "+")
	tokens := raw[:0]
	for _, part := range raw {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// Normalize trims every token and rejoins them with "+", dropping empty
// tokens. It does not validate.
func Normalize(text string) string {
	return strings.Join(splitTokens(text), "+")
}

// FormatForDisplay joins the tokens of a shortcut with " + " for menus.
func FormatForDisplay(text string) string {
	return strings.Join(splitTokens(text), " + ")
}
