// Package project builds containers from TOML manifests. A manifest
// names an ordered list of input files and the output container; the
// build runs the same edit pipeline a manual invocation would.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ainkit/ainkit/edit"
)

// ErrBadManifest tags all manifest errors.
var ErrBadManifest = errors.New("bad project manifest")

// Manifest is a parsed project file.
type Manifest struct {
	Project Settings `toml:"project"`
	Inputs  []Input  `toml:"input"`

	// Dir is the directory containing the manifest (set at load time);
	// relative paths in the manifest resolve against it.
	Dir string `toml:"-"`

	// Path is the manifest file itself (set at load time).
	Path string `toml:"-"`
}

// Settings is the [project] table.
type Settings struct {
	Name    string `toml:"name"`
	Version string `toml:"version"` // container version, "" keeps the CLI's
	Output  string `toml:"output"`
	Source  string `toml:"source"` // optional existing container to edit
}

// Input is one [[input]] entry. Kind is jam, jaf, json, or text.
type Input struct {
	Kind string `toml:"kind"`
	Path string `toml:"path"`
}

// queueKinds maps the manifest inputs onto queue kinds, in order.
func (m *Manifest) queueKinds() ([]edit.Kind, error) {
	kinds := make([]edit.Kind, len(m.Inputs))
	for i, in := range m.Inputs {
		k, err := kindOf(in.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: input %d: %v", ErrBadManifest, m.Path, i, err)
		}
		kinds[i] = k
	}
	return kinds, nil
}

// Load parses the manifest at path and resolves its file references
// relative to the manifest directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadManifest, path, err)
	}

	if m.Path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadManifest, path, err)
	}
	m.Dir = filepath.Dir(m.Path)

	if m.Project.Output == "" {
		return nil, fmt.Errorf("%w: %s: project.output is required", ErrBadManifest, path)
	}
	if m.Project.Version != "" {
		if _, err := edit.ParseVersion(m.Project.Version); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadManifest, path, err)
		}
	}

	m.Project.Output = m.resolve(m.Project.Output)
	if m.Project.Source != "" {
		m.Project.Source = m.resolve(m.Project.Source)
	}
	for i := range m.Inputs {
		if m.Inputs[i].Path == "" {
			return nil, fmt.Errorf("%w: %s: input %d: path is required", ErrBadManifest, path, i)
		}
		if _, err := kindOf(m.Inputs[i].Kind); err != nil {
			return nil, fmt.Errorf("%w: %s: input %d: %v", ErrBadManifest, path, i, err)
		}
		m.Inputs[i].Path = m.resolve(m.Inputs[i].Path)
	}
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

func kindOf(s string) (edit.Kind, error) {
	switch s {
	case "jam":
		return edit.KindCode, nil
	case "jaf":
		return edit.KindSource, nil
	case "json":
		return edit.KindDecl, nil
	case "text":
		return edit.KindText, nil
	default:
		return 0, fmt.Errorf("unknown input kind %q", s)
	}
}
