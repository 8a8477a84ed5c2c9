// Package catalog holds the documentation content model: component versions,
// the origins their content is aggregated from, and the reference files
// collected for them.
package catalog

import (
	"fmt"
	"time"

	"github.com/jorge-barreto/refcollect/internal/retention"
	"gopkg.in/yaml.v3"
)

// Ref types an origin may point at.
const (
	RefTypeBranch = "branch"
	RefTypeTag    = "tag"
	RefTypeCommit = "commit"
)

// ComponentVersion is one version of a documentation component and the
// content aggregated for it.
type ComponentVersion struct {
	Name    string    `yaml:"name" json:"name"`
	Title   string    `yaml:"title" json:"title,omitempty"`
	Version string    `yaml:"version" json:"version"`
	Origins []*Origin `yaml:"origins" json:"-"`
	Files   []*File   `yaml:"-" json:"files"`
}

// Origin identifies one content source: a repository, a ref and a start path.
type Origin struct {
	URL        string     `yaml:"url"`
	GitDir     string     `yaml:"gitdir"`
	RefType    string     `yaml:"reftype"`
	RefName    string     `yaml:"refname"`
	Remote     string     `yaml:"remote"`
	Worktree   string     `yaml:"worktree"`
	StartPath  string     `yaml:"start-path"`
	Collectors Collectors `yaml:"reference"`

	// Owner is the component version this origin belongs to.
	Owner *ComponentVersion `yaml:"-"`
	// CollectorWorktree is the directory the reference collector runs in.
	// It is cleared when a managed worktree is removed.
	CollectorWorktree string `yaml:"-"`
}

// Source returns the repository identity: the URL, or the git dir for local repositories.
func (o *Origin) Source() string {
	if o.URL != "" {
		return o.URL
	}
	return o.GitDir
}

// RemoteName returns the remote used for remote-tracking branches.
func (o *Origin) RemoteName() string {
	if o.Remote == "" {
		return "origin"
	}
	return o.Remote
}

// Ref returns the fully qualified ref for the origin. Commits are returned as-is.
func (o *Origin) Ref() string {
	switch o.RefType {
	case RefTypeBranch:
		return "refs/heads/" + o.RefName
	case RefTypeTag:
		return "refs/tags/" + o.RefName
	default:
		return o.RefName
	}
}

// String identifies the origin in logs and messages.
func (o *Origin) String() string {
	return fmt.Sprintf("%s (%s: %s)", o.Source(), o.RefType, o.RefName)
}

// Collector is one reference collector configured for an origin.
type Collector struct {
	Config   string          `yaml:"config"`
	Worktree WorktreeOptions `yaml:"worktree"`
}

// Collectors accepts either a single mapping or a list of them.
type Collectors []Collector

// UnmarshalYAML decodes a single collector or a sequence of collectors.
func (c *Collectors) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		var single Collector
		if err := value.Decode(&single); err != nil {
			return err
		}
		*c = Collectors{single}
		return nil
	}
	var list []Collector
	if err := value.Decode(&list); err != nil {
		return err
	}
	*c = list
	return nil
}

// CreateAlways forces a managed worktree even when the origin has its own.
const CreateAlways = "always"

// WorktreeOptions controls how the worktree for a collector is managed.
type WorktreeOptions struct {
	Create   string            `yaml:"create"`
	Checkout *bool             `yaml:"checkout"`
	Keep     *retention.Policy `yaml:"keep"`
}

// UnmarshalYAML accepts a mapping, or the scalar false meaning {create: always}.
func (w *WorktreeOptions) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var b bool
		if err := value.Decode(&b); err != nil {
			return fmt.Errorf("line %d: worktree must be a mapping or false", value.Line)
		}
		*w = WorktreeOptions{}
		if !b {
			w.Create = CreateAlways
		}
		return nil
	}
	type plain WorktreeOptions
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*w = WorktreeOptions(p)
	return nil
}

// ShouldCheckout reports whether the worktree is checked out (default true).
func (w WorktreeOptions) ShouldCheckout() bool {
	return w.Checkout == nil || *w.Checkout
}

// File is a reference page produced by the generator.
type File struct {
	Path string `json:"path"`
	// Content is the absolute path of the generated file holding the page.
	Content string    `json:"content"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mtime"`
	Src     FileSrc   `json:"src"`
}

// FileSrc records where a File came from.
type FileSrc struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
	Stem     string `json:"stem"`
	Extname  string `json:"extname"`
	Abspath  string `json:"abspath"`
	Realpath string `json:"realpath,omitempty"`
	Scanned  string `json:"scanned,omitempty"`

	Origin *Origin `json:"-"`
	// OriginSource and OriginRef mirror Origin for serialization.
	OriginSource string `json:"origin,omitempty"`
	OriginRef    string `json:"ref,omitempty"`
}

// FindFile returns the file at path, or nil.
func (c *ComponentVersion) FindFile(path string) *File {
	for _, f := range c.Files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// LinkOrigins sets the Owner back-reference on every origin.
func (c *ComponentVersion) LinkOrigins() {
	for _, o := range c.Origins {
		o.Owner = c
	}
}
