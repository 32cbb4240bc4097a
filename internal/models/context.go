package models

import (
	"errors"
	"path/filepath"
	"strings"
)

// Project names used when none is passed on the command line.
const (
	DefaultProjectName           = "my-honc-app"
	DefaultFiberplaneProjectName = "my-fiberplane-app"
)

// ErrMissingPath is returned by stages that run before the project path was chosen.
var ErrMissingPath = errors.New("project path is required but was not set")

// Base holds the decisions shared by every CLI variant.
type Base struct {
	// Cwd is the absolute directory the CLI was invoked from.
	Cwd string

	// Name is the project name used for manifests.
	Name string

	// Path is the absolute target directory; unset until the path prompt completes.
	Path Optional[string]

	PackageManager PackageManager
	Flags          Flags

	// Force allows materializing into a non-empty directory.
	Force bool

	// Installed is set once dependencies were installed successfully.
	Installed bool
}

// RequirePath returns the project path or ErrMissingPath.
func (b *Base) RequirePath() (string, error) {
	path, ok := b.Path.Get()
	if !ok || strings.TrimSpace(path) == "" {
		return "", ErrMissingPath
	}
	return path, nil
}

// ResolvePath turns user input into an absolute path relative to Cwd.
func (b *Base) ResolvePath(input string) string {
	input = strings.TrimSpace(input)
	if filepath.IsAbs(input) {
		return filepath.Clean(input)
	}
	return filepath.Join(b.Cwd, input)
}

// RelativePath returns Path relative to Cwd for display, or the absolute path
// when no relative form exists.
func (b *Base) RelativePath() string {
	path := b.Path.OrElse("")
	rel, err := filepath.Rel(b.Cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Context is the state threaded through the create-honc-app pipeline.
type Context struct {
	Base

	Template Optional[Template]
	Database Optional[Database]

	// AuthToken is present only after the Neon setup flow completed.
	AuthToken Optional[string]

	// ConnectionURI is the provisioned database URL, if any.
	ConnectionURI Optional[string]
}

// NewContext creates a create-honc-app context.
func NewContext(cwd, name string, pm PackageManager) *Context {
	return &Context{Base: newBase(cwd, name, DefaultProjectName, pm)}
}

// FiberplaneContext is the state threaded through the create-fiberplane pipeline.
type FiberplaneContext struct {
	Base

	Template Optional[Template]

	// Sources are read back from the materialized template for rules generation.
	Sources Optional[SourceFiles]

	// AuthToken is the Fiberplane service token obtained before deploy.
	AuthToken Optional[string]
}

// NewFiberplaneContext creates a create-fiberplane context.
func NewFiberplaneContext(cwd, name string, pm PackageManager) *FiberplaneContext {
	return &FiberplaneContext{Base: newBase(cwd, name, DefaultFiberplaneProjectName, pm)}
}

func newBase(cwd, name, fallback string, pm PackageManager) Base {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	return Base{
		Cwd:            cwd,
		Name:           name,
		PackageManager: pm,
	}
}

// SourceFiles are generated sources read back after the template was extracted.
// Empty strings mean the file was missing or unreadable.
type SourceFiles struct {
	Index  string
	Schema string
	Seed   string
}

// Empty reports whether no source was read.
func (s SourceFiles) Empty() bool {
	return s.Index == "" && s.Schema == "" && s.Seed == ""
}
