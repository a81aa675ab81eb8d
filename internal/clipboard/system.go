package clipboard

import (
	"fmt"
	"sync"

	textclip "github.com/atotto/clipboard"
	imageclip "golang.design/x/clipboard"
)

type systemClipboard struct {
	once    sync.Once
	initErr error
}

// New returns the system clipboard. Images are read through
// golang.design/x/clipboard, text is written through atotto/clipboard.
func New() Clipboard {
	return &systemClipboard{}
}

func (c *systemClipboard) init() error {
	c.once.Do(func() {
		c.initErr = imageclip.Init()
	})
	return c.initErr
}

func (c *systemClipboard) ReadImage() ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("init clipboard: %w", err)
	}
	data := imageclip.Read(imageclip.FmtImage)
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}

func (c *systemClipboard) WriteText(text string) error {
	if err := textclip.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard text: %w", err)
	}
	return nil
}
