package clipboard

import "errors"

// ErrNoImage is returned when the clipboard holds no image.
var ErrNoImage = errors.New("clipboard has no image")

// Clipboard reads images from and writes text to the system clipboard.
type Clipboard interface {
	// ReadImage returns the clipboard image as PNG bytes.
	ReadImage() ([]byte, error)
	WriteText(text string) error
}

// QuotePath wraps path in double quotes so it pastes safely into shells
// and file dialogs.
func QuotePath(path string) string {
	return `"` + path + `"`
}
