package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/refcollect/internal/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultReleasesURL lists the generator releases.
const DefaultReleasesURL = "https://api.github.com/repos/cppalliance/mrdocs/releases"

// Worktree creation modes.
const (
	CreateAuto   = "auto"
	CreateAlways = catalog.CreateAlways
)

// VarEntry is one user variable.
type VarEntry struct {
	Key   string
	Value string
}

// OrderedVars keeps user variables in declaration order so later values can
// refer to earlier ones.
type OrderedVars []VarEntry

// UnmarshalYAML decodes a mapping while preserving key order.
func (v *OrderedVars) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: vars must be a mapping", value.Line)
	}
	out := make(OrderedVars, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: vars: %q must be a scalar", val.Line, k.Value)
		}
		out = append(out, VarEntry{Key: k.Value, Value: val.Value})
	}
	*v = out
	return nil
}

// Dependency is a library the generator needs on disk.
type Dependency struct {
	Name            string `yaml:"name"`
	Repo            string `yaml:"repo"`
	Tag             string `yaml:"tag"`
	Variable        string `yaml:"variable"`
	SystemEnv       string `yaml:"system-env"`
	CloneSubmodules *bool  `yaml:"clone-submodules"`
}

// Submodules reports whether submodules are initialized after cloning (default true).
func (d Dependency) Submodules() bool {
	return d.CloneSubmodules == nil || *d.CloneSubmodules
}

// Generator locates the reference generator.
type Generator struct {
	Path        string `yaml:"path"`
	ReleasesURL string `yaml:"releases-url"`
	// Args are extra command-line arguments, split like a shell would.
	Args string `yaml:"args"`
}

type Config struct {
	Name            string                      `yaml:"name"`
	CacheDir        string                      `yaml:"cache-dir"`
	CreateWorktrees string                      `yaml:"create-worktrees"`
	KeepWorktrees   bool                        `yaml:"keep-worktrees"`
	Quiet           bool                        `yaml:"quiet"`
	Vars            OrderedVars                 `yaml:"vars"`
	Dependencies    []Dependency                `yaml:"dependencies"`
	Generator       Generator                   `yaml:"generator"`
	Components      []*catalog.ComponentVersion `yaml:"components"`
}

// Load reads a YAML playbook and returns a validated Config.
func Load(path, projectRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Validate(&cfg, projectRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveCacheDir returns the absolute cache directory. ${PROJECT_ROOT} and
// environment variables are expanded; relative paths are taken from projectRoot.
func (c *Config) ResolveCacheDir(projectRoot string) string {
	dir := c.CacheDir
	if dir == "" {
		dir = filepath.Join(".cache", "refcollect")
	}
	dir = os.Expand(dir, func(key string) string {
		if key == "PROJECT_ROOT" {
			return projectRoot
		}
		return os.Getenv(key)
	})
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectRoot, dir)
	}
	return filepath.Clean(dir)
}

// Origins returns every origin of every component, in declaration order.
func (c *Config) Origins() []*catalog.Origin {
	var out []*catalog.Origin
	for _, cv := range c.Components {
		out = append(out, cv.Origins...)
	}
	return out
}

// Component returns the component version with the given name and version, or nil.
func (c *Config) Component(name, version string) *catalog.ComponentVersion {
	for _, cv := range c.Components {
		if cv.Name == name && (version == "" || cv.Version == version) {
			return cv
		}
	}
	return nil
}

func absFrom(root, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(root, p)
}
