package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/petems/pathsnap/internal/hotkey"
	"github.com/petems/pathsnap/internal/snapshot"
)

const (
	appFolder       = "PathSnap"
	DefaultFormat   = "png"
	DefaultHotkey   = hotkey.DefaultShortcut
	DefaultLogLevel = "info"
)

// Folders older releases kept their config in.
var legacyFolders = []string{"ImagePathMate", "ScreenshotPathTool"}

type Config struct {
	SaveDir         string `json:"save_dir"`
	ImageFormat     string `json:"image_format"` // "png", "jpg", "bmp" or "gif"
	FileNamePattern string `json:"file_name_pattern"`
	Hotkey          string `json:"hotkey"`
	LogLevel        string `json:"log_level"`

	path string
}

// Default returns the configuration used when nothing is on disk.
func Default() *Config {
	return DefaultAt(Path())
}

// DefaultAt returns the defaults bound to the file at path.
func DefaultAt(path string) *Config {
	return &Config{
		SaveDir:         DefaultSaveDir(),
		ImageFormat:     DefaultFormat,
		FileNamePattern: snapshot.DefaultPattern,
		Hotkey:          DefaultHotkey,
		LogLevel:        DefaultLogLevel,
		path:            path,
	}
}

// Load reads the config from disk. When it is missing, a legacy config is
// migrated and saved. The returned config is always usable: on a decode
// error it holds the defaults and the error is returned alongside.
func Load() (*Config, error) {
	return load(Path(), legacyPaths())
}

func load(path string, legacy []string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return DefaultAt(path), err
	}

	for _, lp := range legacy {
		migrated, err := loadLegacy(lp)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			break
		}
		migrated.path = path
		return migrated, migrated.Save()
	}

	return DefaultAt(path), nil
}

// LoadFile reads and normalizes the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.path = path
	return cfg, nil
}

// Normalize trims every field and replaces blank or invalid values with
// their defaults.
func (c *Config) Normalize() {
	c.SaveDir = strings.TrimSpace(c.SaveDir)
	if c.SaveDir == "" {
		c.SaveDir = DefaultSaveDir()
	}

	c.ImageFormat = string(snapshot.ParseFormat(c.ImageFormat))

	c.FileNamePattern = strings.TrimSpace(c.FileNamePattern)
	if !snapshot.ValidPattern(c.FileNamePattern) {
		c.FileNamePattern = snapshot.DefaultPattern
	}

	c.Hotkey = hotkey.Normalize(c.Hotkey)
	if c.Hotkey == "" {
		c.Hotkey = DefaultHotkey
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.File()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// File is where Save writes.
func (c *Config) File() string {
	if c.path == "" {
		return Path()
	}
	return c.path
}

// Clone returns a copy bound to the same file.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Path returns the platform-specific config file path
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Dir returns the platform-specific config directory.
func Dir() string {
	return filepath.Join(baseDir(), appFolder)
}

func legacyPaths() []string {
	paths := make([]string, 0, len(legacyFolders))
	for _, folder := range legacyFolders {
		paths = append(paths, filepath.Join(baseDir(), folder, "config.json"))
	}
	return paths
}

func baseDir() string {
	switch runtime.GOOS {
	case "darwin":
		return os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		return os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		return os.Getenv("HOME") + "/.config"
	}
}

// DefaultSaveDir is Pictures/Screenshots in the user's home.
func DefaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Pictures", "Screenshots")
}
