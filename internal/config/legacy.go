package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// legacyConfig is the file written by the Windows releases, which used
// .NET property names and .NET date format strings.
type legacyConfig struct {
	SaveDir         string `json:"SaveDir"`
	ImageFormat     string `json:"ImageFormat"`
	FileNamePattern string `json:"FileNamePattern"`
	Hotkey          string `json:"Hotkey"`
}

func loadLegacy(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lc legacyConfig
	if err := json.Unmarshal(data, &lc); err != nil {
		return nil, fmt.Errorf("decode legacy %s: %w", path, err)
	}
	cfg := &Config{
		SaveDir:         lc.SaveDir,
		ImageFormat:     lc.ImageFormat,
		FileNamePattern: convertDotNetPattern(lc.FileNamePattern),
		Hotkey:          lc.Hotkey,
	}
	cfg.Normalize()
	return cfg, nil
}

// dotNetTokens maps custom date format specifiers to strftime, longest
// first.
var dotNetTokens = []struct{ from, to string }{
	{"yyyy", "%Y"},
	{"yy", "%y"},
	{"MM", "%m"},
	{"dd", "%d"},
	{"HH", "%H"},
	{"hh", "%I"},
	{"mm", "%M"},
	{"ss", "%S"},
	{"tt", "%p"},
	{"fffffff", "%f"},
	{"ffffff", "%f"},
	{"fffff", "%f"},
	{"ffff", "%f"},
	{"fff", "%L"},
	{"ff", "%L"},
}

// convertDotNetPattern rewrites a .NET date pattern as strftime. Fractional
// seconds become %L (milliseconds) for up to three digits and %f
// (microseconds) beyond that.
func convertDotNetPattern(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "%") {
		return p
	}

	var b strings.Builder
	for i := 0; i < len(p); {
		matched := false
		for _, tok := range dotNetTokens {
			if strings.HasPrefix(p[i:], tok.from) {
				b.WriteString(tok.to)
				i += len(tok.from)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(p[i])
			i++
		}
	}
	return b.String()
}
