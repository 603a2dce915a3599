package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/pailab/scratchfs/pkg/store"
	"github.com/pailab/scratchfs/pkg/vfs"
)

// Config is the mount file schema. The default backend catches every
// path no mount claims; each mount binds a route prefix to a backend.
//
//	default: {type: state}
//	max_file_size_mb: 10
//	mounts:
//	  - prefix: /memory/
//	    type: badger
//	    dir: ~/.scratchfs/memory
//	  - prefix: /workspace/
//	    type: disk
//	    root: ./workspace
//	    sandbox: true
type Config struct {
	Default       BackendConfig `yaml:"default"`
	MaxFileSizeMB int           `yaml:"max_file_size_mb"`
	Mounts        []Mount       `yaml:"mounts"`
}

// Mount binds one route prefix to a backend.
type Mount struct {
	Prefix        string `yaml:"prefix"`
	BackendConfig `yaml:",inline"`
}

// BackendConfig describes one backend. Type selects the strategy:
// "state" (in-memory), "disk", or "badger". Unused fields are ignored.
type BackendConfig struct {
	Type string `yaml:"type"`

	// Disk backend.
	Root    string `yaml:"root"`
	Sandbox bool   `yaml:"sandbox"`

	// Badger backend.
	Dir       string   `yaml:"dir"`
	Namespace []string `yaml:"namespace"`
}

// DefaultConfig is used when no mount file is given: a bare in-memory
// namespace.
func DefaultConfig() Config {
	return Config{Default: BackendConfig{Type: "state"}}
}

// LoadConfig reads and parses a mount file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read mounts file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse mounts file %s: %w", path, err)
	}
	return cfg, nil
}

// Build constructs the backend tree the config describes. The returned
// close function releases any opened stores.
func (c Config) Build() (vfs.Backend, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for _, fn := range closers {
			if err := fn(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	def, err := c.buildBackend(c.Default, &closers)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	if len(c.Mounts) == 0 {
		return def, closeAll, nil
	}

	routes := make([]vfs.Route, 0, len(c.Mounts))
	for _, m := range c.Mounts {
		backend, err := c.buildBackend(m.BackendConfig, &closers)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("mount %s: %w", m.Prefix, err)
		}
		routes = append(routes, vfs.Route{Prefix: m.Prefix, Backend: backend})
	}

	composite, err := vfs.NewComposite(def, routes...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return composite, closeAll, nil
}

func (c Config) buildBackend(bc BackendConfig, closers *[]func() error) (vfs.Backend, error) {
	switch bc.Type {
	case "", "state":
		return vfs.NewState(vfs.NewSession()), nil

	case "disk":
		return vfs.NewDisk(vfs.DiskOptions{
			Root:          expandHome(bc.Root),
			Sandbox:       bc.Sandbox,
			MaxFileSizeMB: c.MaxFileSizeMB,
		})

	case "badger":
		st, err := store.NewBadger(store.BadgerOptions{Dir: expandHome(bc.Dir)})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, st.Close)
		return vfs.NewStoreBackend(st, bc.Namespace...), nil

	default:
		return nil, fmt.Errorf("unknown backend type %q", bc.Type)
	}
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
