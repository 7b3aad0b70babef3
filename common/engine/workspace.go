package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lyzr/compressor/common/logger"
)

// Workspace is a job's private scratch directory
type Workspace struct {
	Dir string
	log *logger.Logger
}

// NewWorkspace creates a fresh directory under root
func NewWorkspace(root, jobID string, log *logger.Logger) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create work root: %w", err)
	}
	dir, err := os.MkdirTemp(root, "job-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir, log: log}, nil
}

// Path returns name inside the workspace. name must be a bare file name.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

// WriteFile stores data under name and returns its path
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Remove deletes the workspace and everything in it. Failures are logged,
// never returned, so cleanup cannot mask the job's own outcome.
func (w *Workspace) Remove() {
	if err := os.RemoveAll(w.Dir); err != nil {
		w.log.Warn("failed to remove workspace", "dir", w.Dir, "error", err)
	}
}
