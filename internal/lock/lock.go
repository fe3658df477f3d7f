package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// FileName is the lock file created inside a workspace directory.
const FileName = "LOCK"

// HeldError is returned when another daemon owns the workspace.
type HeldError struct {
	PID       int
	Workspace string
	Path      string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("workspace %q is served by PID %d (%s)", e.Workspace, e.PID, e.Path)
}

// Holder is what a lock file records about its owner.
type Holder struct {
	PID       int
	Workspace string
	Since     time.Time
}

// Lock is an acquired workspace lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive lock of the workspace directory dir.
// It fails with *HeldError while another process holds it.
func Acquire(dir, workspace string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		h, _ := ReadHolder(dir)
		_ = f.Close()
		return nil, &HeldError{PID: h.PID, Workspace: h.Workspace, Path: path}
	}

	if err := writeHolder(f, Holder{PID: os.Getpid(), Workspace: workspace, Since: time.Now()}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes the file. Safe on a nil or released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadHolder parses the lock file of dir without locking it. A missing file
// yields a zero Holder.
func ReadHolder(dir string) (Holder, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return Holder{}, nil
	}
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			h.PID, _ = strconv.Atoi(value)
		case "workspace":
			h.Workspace = value
		case "since":
			h.Since, _ = time.Parse(time.RFC3339, value)
		}
	}
	return h, nil
}

func writeHolder(f *os.File, h Holder) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "pid=%d\nworkspace=%s\nsince=%s\n",
		h.PID, h.Workspace, h.Since.UTC().Format(time.RFC3339))
	return err
}
