package cpcache

import (
	"os"
	"path/filepath"
)

// DirLocator resolves the platform-appropriate default cache directories.
// The CLI front end and other callers outside this module own the "real"
// XDG-aware implementation; DefaultDirLocator below is a minimal stand-in so
// this module is runnable on its own.
//
//go:generate mockgen -destination=mock_dirlocator.go -package=cpcache . DirLocator
type DirLocator interface {
	// DataDir returns the default root for downloaded blobs.
	DataDir() (string, error)
	// JSONDir returns the default root for index.json/aliases.json.
	JSONDir() (string, error)
}

// DefaultDirLocator resolves both directories under os.UserCacheDir.
type DefaultDirLocator struct{}

// DataDir implements DirLocator.
func (DefaultDirLocator) DataDir() (string, error) {
	return cacheSubdir("data")
}

// JSONDir implements DirLocator.
func (DefaultDirLocator) JSONDir() (string, error) {
	return cacheSubdir("json")
}

func cacheSubdir(name string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "cpcache", name), nil
}

// Config is the set of options recognized by the engine constructor. The
// zero value is valid: every field left unset falls back to its documented
// default.
type Config struct {
	// Silent suppresses progress output from the download pool's display
	// hook.
	Silent bool
	// NoTimeouts disables both the HTTP fetcher's connect and low-speed
	// timeouts.
	NoTimeouts bool
	// JSONPath overrides the directory index.json/aliases.json are read from
	// and written to. Defaults to Dirs.JSONDir().
	JSONPath string
	// DataPath overrides the directory blobs are stored under. Defaults to
	// Dirs.DataDir().
	DataPath string
	// VidxList overrides the root vendor index URL with a local file path.
	VidxList string
	// Dirs resolves the default JSONPath/DataPath when they're unset. A nil
	// Dirs is replaced with DefaultDirLocator{}.
	Dirs DirLocator
}

// Resolve fills in JSONPath/DataPath/Dirs from their defaults, returning a
// copy. It never mutates the receiver.
func (c Config) Resolve() (Config, error) {
	if c.Dirs == nil {
		c.Dirs = DefaultDirLocator{}
	}
	if c.JSONPath == "" {
		p, err := c.Dirs.JSONDir()
		if err != nil {
			return Config{}, err
		}
		c.JSONPath = p
	}
	if c.DataPath == "" {
		p, err := c.Dirs.DataDir()
		if err != nil {
			return Config{}, err
		}
		c.DataPath = p
	}
	return c, nil
}
