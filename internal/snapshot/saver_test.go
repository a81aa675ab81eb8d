package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/bmp"
)

var stamp = time.Date(2024, 1, 31, 15, 45, 2, 123456789, time.Local)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"png":   PNG,
		"PNG":   PNG,
		"jpg":   JPG,
		" JPEG": JPG,
		"bmp":   BMP,
		"gif":   GIF,
		"tiff":  PNG,
		"":      PNG,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveFormats(t *testing.T) {
	src := testPNG(t)
	tests := []struct {
		format Format
		decode func([]byte) (image.Image, error)
	}{
		{PNG, func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) }},
		{JPG, func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) }},
		{BMP, func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) }},
		{GIF, func(b []byte) (image.Image, error) { return gif.Decode(bytes.NewReader(b)) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			s := Saver{Dir: dir, Format: tt.format, Pattern: DefaultPattern, Logger: zerolog.Nop()}

			res, err := s.Save(src, stamp)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			want := filepath.Join(dir, "20240131_154502_123."+string(tt.format))
			if res.Path != want {
				t.Errorf("Path = %q, want %q", res.Path, want)
			}
			data, err := os.ReadFile(res.Path)
			if err != nil {
				t.Fatal(err)
			}
			if len(data) != res.Bytes {
				t.Errorf("Bytes = %d, file has %d", res.Bytes, len(data))
			}
			img, err := tt.decode(data)
			if err != nil {
				t.Fatalf("decode saved %s: %v", tt.format, err)
			}
			if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
				t.Errorf("saved image bounds = %v", img.Bounds())
			}
		})
	}
}

func TestSavePNGPassesBytesThrough(t *testing.T) {
	src := testPNG(t)
	s := Saver{Dir: t.TempDir(), Format: PNG, Logger: zerolog.Nop()}
	res, err := s.Save(src, stamp)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(res.Path)
	if !bytes.Equal(data, src) {
		t.Error("png data was re-encoded")
	}
}

func TestSaveUniqueNames(t *testing.T) {
	dir := t.TempDir()
	s := Saver{Dir: dir, Format: PNG, Pattern: DefaultPattern, Logger: zerolog.Nop()}
	src := testPNG(t)

	var got []string
	for i := 0; i < 3; i++ {
		res, err := s.Save(src, stamp)
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		got = append(got, filepath.Base(res.Path))
	}
	want := []string{"20240131_154502_123.png", "20240131_154502_123_1.png", "20240131_154502_123_2.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("save %d named %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSaveMillisecondsApartNeedNoSuffix(t *testing.T) {
	dir := t.TempDir()
	s := Saver{Dir: dir, Format: PNG, Pattern: DefaultPattern, Logger: zerolog.Nop()}
	src := testPNG(t)

	first, err := s.Save(src, stamp)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Save(src, stamp.Add(5*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(first.Path); got != "20240131_154502_123.png" {
		t.Errorf("first save named %q", got)
	}
	if got := filepath.Base(second.Path); got != "20240131_154502_128.png" {
		t.Errorf("second save named %q", got)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shots")
	s := Saver{Dir: dir, Logger: zerolog.Nop()}
	if _, err := s.Save(testPNG(t), stamp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
}

func TestSaveRejectsCorruptImage(t *testing.T) {
	s := Saver{Dir: t.TempDir(), Format: JPG, Logger: zerolog.Nop()}
	if _, err := s.Save([]byte("not a png"), stamp); err == nil {
		t.Error("Save accepted undecodable data")
	}
}

func TestFileNamePatterns(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{DefaultPattern, "20240131_154502_123"},
		{"shot-%Y-%m-%d", "shot-2024-01-31"},
		{"%H%M%S_%f", "154502_123456"},
		{"", "20240131_154502_123"},
		{"yyyyMMdd_HHmmss_fff", "20240131_154502_123"},
		{"%Y/%m", "20240131_154502_123"},
	}
	for _, tt := range tests {
		if got := FileName(tt.pattern, stamp); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}
