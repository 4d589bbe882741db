// Package config loads optional braid.toml settings from a merge root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the per-root configuration file.
const FileName = "braid.toml"

// Policy values for repositories whose branch cannot be resolved.
const (
	MissingBranchAbort = "abort"
	MissingBranchSkip  = "skip"
)

// Config holds join settings declared next to the repositories being
// merged. CLI flags take precedence over file values.
type Config struct {
	Suffix          string `toml:"suffix"`
	Branch          string `toml:"branch"`
	Target          string `toml:"target"`
	OnMissingBranch string `toml:"on_missing_branch"`
}

// Load reads braid.toml from root. A missing file yields a zero Config and
// no error.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	switch cfg.OnMissingBranch {
	case "", MissingBranchAbort, MissingBranchSkip:
	default:
		return nil, fmt.Errorf(
			"load config %s: on_missing_branch must be %q or %q, got %q",
			path, MissingBranchAbort, MissingBranchSkip, cfg.OnMissingBranch,
		)
	}
	return &cfg, nil
}
