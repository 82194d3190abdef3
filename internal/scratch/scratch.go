// Package scratch provides per-order temporary directories so that two users
// uploading identically named files never share a path.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir is a private directory under the shared temp root.
type Dir struct {
	path string
}

// New creates root/printbot-<userID>-<uuid>.
func New(root string, userID int64) (*Dir, error) {
	if root == "" {
		root = os.TempDir()
	}
	path := filepath.Join(root, fmt.Sprintf("printbot-%d-%s", userID, uuid.NewString()))
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("scratch: create %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.path }

// Path returns a path inside the directory for name. Only the base name is used,
// so "../x" cannot escape.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.path, SafeName(name))
}

// Remove deletes the directory and everything in it. Safe to call twice.
func (d *Dir) Remove() error {
	if d == nil || d.path == "" {
		return nil
	}
	return os.RemoveAll(d.path)
}

// SafeName reduces name to a single non-empty path element.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	switch name {
	case "", ".", "..", "/":
		return "file"
	}
	return name
}
