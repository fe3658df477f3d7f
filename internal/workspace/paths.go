package workspace

import (
	"os"
	"path/filepath"
	"sort"
)

// HomeEnv overrides the base directory when set.
const HomeEnv = "GUESTFEED_HOME"

// Layout locates workspaces under a base directory.
type Layout struct {
	Base string
}

// DefaultLayout is rooted at $GUESTFEED_HOME, or ~/.guestfeed.
func DefaultLayout() Layout {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return Layout{Base: dir}
	}
	home, _ := os.UserHomeDir()
	return Layout{Base: filepath.Join(home, ".guestfeed")}
}

// Dir returns the workspace directory.
func (l Layout) Dir(name string) string {
	return filepath.Join(l.Base, "workspaces", name)
}

// SocketPath returns the daemon's unix socket.
func (l Layout) SocketPath(name string) string {
	return filepath.Join(l.Dir(name), "daemon.sock")
}

// LockPath returns the single-daemon lock file.
func (l Layout) LockPath(name string) string {
	return filepath.Join(l.Dir(name), "LOCK")
}

// DBPath returns the feed store.
func (l Layout) DBPath(name string) string {
	return filepath.Join(l.Dir(name), "feed.db")
}

func (l Layout) LogDir(name string) string {
	return filepath.Join(l.Dir(name), "logs")
}

// LogPath returns the daemon log file.
func (l Layout) LogPath(name string) string {
	return filepath.Join(l.LogDir(name), "feedd.log")
}

// ConfigPath returns the global config file.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Base, "config.toml")
}

// EnsureDir creates the workspace tree with owner-only permissions.
func (l Layout) EnsureDir(name string) error {
	for _, d := range []string{l.Dir(name), l.LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}

// List returns the names of existing workspaces, sorted.
func (l Layout) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Base, "workspaces"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
