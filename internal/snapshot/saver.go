package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	"github.com/rs/zerolog"
)

// DefaultPattern names files like 20240131_154502_123, down to the
// millisecond.
const DefaultPattern = "%Y%m%d_%H%M%S_%L"

// Saver writes clipboard images into Dir.
type Saver struct {
	Dir     string
	Format  Format
	Pattern string
	Logger  zerolog.Logger
}

// Result describes a saved image.
type Result struct {
	Path  string
	Bytes int
}

// Save encodes pngData as s.Format and writes it under a name derived from
// now. An existing file is never overwritten: _1, _2 ... are appended.
func (s Saver) Save(pngData []byte, now time.Time) (Result, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return Result{}, fmt.Errorf("create directory: %w", err)
	}

	format := s.Format
	if format == "" {
		format = PNG
	}
	data, err := encode(pngData, format)
	if err != nil {
		return Result{}, err
	}

	base := FileName(s.Pattern, now)
	path, err := writeUnique(s.Dir, base, string(format), data)
	if err != nil {
		return Result{}, fmt.Errorf("save image: %w", err)
	}

	s.Logger.Info().
		Str("path", path).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("Saved clipboard image")
	return Result{Path: path, Bytes: len(data)}, nil
}

// FileName expands pattern for t, falling back to DefaultPattern when the
// pattern is invalid.
func FileName(pattern string, t time.Time) string {
	if !ValidPattern(pattern) {
		pattern = DefaultPattern
	}
	return strftime.Format(pattern, t)
}

// ValidPattern reports whether pattern is a strftime layout producing a
// non-empty name usable as a file name.
func ValidPattern(pattern string) bool {
	if !strings.Contains(pattern, "%") {
		return false
	}
	name := strings.TrimSpace(strftime.Format(pattern, time.Now()))
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `<>:"/\|?*`)
}

// writeUnique creates dir/base.ext exclusively, moving to base_1.ext,
// base_2.ext ... while names are taken.
func writeUnique(dir, base, ext string, data []byte) (string, error) {
	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name += "_" + strconv.Itoa(n)
		}
		path := filepath.Join(dir, name+"."+ext)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return path, nil
	}
}
