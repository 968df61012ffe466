// Package config loads an optional TOML defaults file for the llamazip
// CLI, grounded on the musicfox project's koanf-based configuration
// manager. CLI flags always override a value this package supplies.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mewkiz/pkg/errutil"
)

// Defaults holds the CLI flag defaults a config file can override. Zero
// values mean "not set in the file"; the CLI layer only consults a field
// here when the user didn't pass the matching flag. Verbose is loaded but
// not consulted: the CLI's --verbose flag defaults to true regardless of
// the file.
type Defaults struct {
	WindowOverlap string
	ContextLength int
	GPULayers     int
	UseMlock      bool
	Verbose       bool
}

// ErrLoadFailed wraps any error reading or parsing an existing config file.
var ErrLoadFailed = errutil.New("config: failed to load config file")

// DefaultPath returns "$XDG_CONFIG_HOME/llamazip/config.toml", falling back
// to "~/.config/llamazip/config.toml".
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errutil.Err(err)
	}
	return filepath.Join(dir, "llamazip", "config.toml"), nil
}

// Load reads the TOML file at path into Defaults. A missing file is not an
// error: it simply yields the zero-value Defaults, since every setting it
// could provide also has a CLI flag.
func Load(path string) (Defaults, error) {
	var d Defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return d, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return d, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	d.WindowOverlap = k.String("window_overlap")
	d.ContextLength = k.Int("n_ctx")
	d.GPULayers = k.Int("n_gpu_layers")
	d.UseMlock = k.Bool("use_mlock")
	d.Verbose = k.Bool("verbose")
	return d, nil
}
