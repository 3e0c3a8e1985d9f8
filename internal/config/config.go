// Package config loads the seqgen configuration file.
//
// The configuration lives at ~/.config/seqgen/config.toml (or under
// $XDG_CONFIG_HOME when set) and provides dataset locations plus default
// generation parameters. Command-line flags always override file values.
//
// Example config.toml:
//
//	[datasets]
//	mnist_images = "/data/mnist/train-images-idx3-ubyte"
//	mnist_labels = "/data/mnist/train-labels-idx1-ubyte"
//	backgrounds  = "/data/bsds500/images"
//
//	[generate]
//	min_gap = 1
//	max_gap = 30
//	width   = 100
//	output  = "./out"
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mlutz/seqgen/pkg/errors"
)

// appName is the directory name under the XDG config home.
const appName = "seqgen"

// Datasets holds the locations of the glyph and background sources.
type Datasets struct {
	// MNISTImages is the path to the IDX images file (idx3-ubyte).
	MNISTImages string `toml:"mnist_images"`

	// MNISTLabels is the path to the IDX labels file (idx1-ubyte).
	MNISTLabels string `toml:"mnist_labels"`

	// Backgrounds is a directory of PNG/JPEG images used for augmentation.
	Backgrounds string `toml:"backgrounds"`
}

// Generate holds default generation parameters. Zero values mean "not set";
// required parameters without a file default must come from flags.
type Generate struct {
	MinGap int    `toml:"min_gap"`
	MaxGap int    `toml:"max_gap"`
	Width  int    `toml:"width"`
	Count  int    `toml:"count"`
	Output string `toml:"output"`
}

// Config is the full configuration file contents.
type Config struct {
	Datasets Datasets `toml:"datasets"`
	Generate Generate `toml:"generate"`
}

// DefaultPath returns the configuration file location following the XDG
// convention: $XDG_CONFIG_HOME/seqgen/config.toml, falling back to
// ~/.config/seqgen/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration from path. A missing file is not an error:
// every setting can be supplied by flags, so Load returns an empty Config
// in that case. A file that exists but fails to parse is an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return &cfg, nil
}

// LoadDefault loads the configuration from the default XDG location.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		// No resolvable home directory; run on flags alone.
		return &Config{}, nil
	}
	return Load(path)
}
