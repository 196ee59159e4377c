// Package security provides validation for paths handed to the workspace.
package security

import (
	"path/filepath"
	"strings"

	"github.com/notekit/notebook-mcp/internal/errors"
)

// Validator defines the validation interface for notebook paths.
type Validator interface {
	SanitizePath(path string) (string, error)
	ValidateNotebookPath(path string) error
}

// DefaultValidator validates notebook paths against a workspace root.
// An empty root disables the containment check.
type DefaultValidator struct {
	root string
}

// NewDefaultValidator creates a validator rooted at the given workspace
// directory. root may be relative; it is resolved once here.
func NewDefaultValidator(root string) (*DefaultValidator, error) {
	if root == "" {
		return &DefaultValidator{}, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Validationf("cannot resolve workspace root %q: %v", root, err)
	}
	return &DefaultValidator{root: abs}, nil
}

// SanitizePath cleans and absolutizes a path.
func (v *DefaultValidator) SanitizePath(path string) (string, error) {
	if path == "" {
		return "", errors.Validationf("path must not be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", errors.Validationf("path contains a NUL byte")
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", errors.Validationf("cannot resolve path %q: %v", path, err)
	}
	return abs, nil
}

// ValidateNotebookPath checks that a sanitized path names a notebook file
// inside the workspace root.
func (v *DefaultValidator) ValidateNotebookPath(path string) error {
	if !strings.HasSuffix(strings.ToLower(path), ".ipynb") {
		return errors.Validationf("%s: notebook files must have the .ipynb extension", path)
	}
	if v.root == "" {
		return nil
	}
	rel, err := filepath.Rel(v.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Validationf("%s is outside the workspace root %s", path, v.root)
	}
	return nil
}
