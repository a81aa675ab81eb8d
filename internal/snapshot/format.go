package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Format is an output image format, named by its file extension.
type Format string

const (
	PNG Format = "png"
	JPG Format = "jpg"
	BMP Format = "bmp"
	GIF Format = "gif"
)

const jpegQuality = 95

// ParseFormat maps a configured format name to a Format. Unknown or blank
// names fall back to PNG.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "jpg", "jpeg":
		return JPG
	case "bmp":
		return BMP
	case "gif":
		return GIF
	default:
		return PNG
	}
}

// encode converts PNG clipboard data to f. PNG input is passed through.
func encode(pngData []byte, f Format) ([]byte, error) {
	if f == PNG {
		return pngData, nil
	}
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode clipboard image: %w", err)
	}

	var buf bytes.Buffer
	switch f {
	case JPG:
		err = jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality})
	case BMP:
		err = bmp.Encode(&buf, img)
	case GIF:
		err = gif.Encode(&buf, img, nil)
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over white; JPEG has no alpha channel and transparent
// pixels would otherwise come out black.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
