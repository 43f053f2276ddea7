// Package artifact implements C1: a scoped handle over a filesystem path
// that is guaranteed to be unlinked exactly once when the handle is closed.
package artifact

import (
	"fmt"
	"os"
	"sync"

	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "artifact"

// Artifact is a temporary file on disk plus an open read handle to it. The
// backing path is deleted the first time Close is called, regardless of how
// many times Close is called afterward.
type Artifact struct {
	path string

	mu     sync.Mutex
	file   *os.File
	closed bool
}

// Open wraps an existing path as an Artifact, opening it for reading. The
// caller transfers ownership of the path: it will be removed on Close.
func Open(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Io, component, fmt.Errorf("open %s: %w", path, err))
	}
	return &Artifact{path: path, file: f}, nil
}

// Path returns the absolute filesystem path backing this artifact.
func (a *Artifact) Path() string {
	return a.path
}

// Read satisfies io.Reader by delegating to the underlying file.
func (a *Artifact) Read(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, machineerr.New(machineerr.Invariant, component, "read after close")
	}
	return a.file.Read(p)
}

// Close closes the underlying file handle and unlinks the backing path.
// Safe to call more than once; only the first call does any work.
func (a *Artifact) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	closeErr := a.file.Close()
	removeErr := os.Remove(a.path)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return machineerr.Wrap(machineerr.Io, component, fmt.Errorf("remove %s: %w", a.path, removeErr))
	}
	if closeErr != nil {
		return machineerr.Wrap(machineerr.Io, component, fmt.Errorf("close %s: %w", a.path, closeErr))
	}
	return nil
}
