package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoLinks is returned when there is nothing to install
var ErrNoLinks = errors.New("no links configured")

// Link is one command placed on PATH
type Link struct {
	// Name is the file created in the bin directory
	Name string
	// Target is a file name relative to the source directory
	Target string
}

// Result describes one installed link
type Result struct {
	Path     string
	Target   string
	Replaced bool
}

// Installer creates command symlinks in a user bin directory
type Installer struct {
	BinDir    string
	SourceDir string
	Links     []Link
}

// LinksFromMap turns a name -> target map into links sorted by name
func LinksFromMap(m map[string]string) []Link {
	links := make([]Link, 0, len(m))
	for name, target := range m {
		links = append(links, Link{Name: name, Target: target})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links
}

// ExecutableDir returns the directory holding the running binary with
// symlinks resolved, so it does not depend on the working directory
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", exe, err)
	}
	return filepath.Dir(resolved), nil
}

// Install creates BinDir if needed and force-creates every link.
// It stops at the first failure.
func (in *Installer) Install() ([]Result, error) {
	if len(in.Links) == 0 {
		return nil, ErrNoLinks
	}

	sourceDir, err := filepath.Abs(in.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	if err := os.MkdirAll(in.BinDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", in.BinDir, err)
	}

	results := make([]Result, 0, len(in.Links))
	for _, link := range in.Links {
		res, err := forceSymlink(filepath.Join(sourceDir, link.Target), filepath.Join(in.BinDir, link.Name))
		if err != nil {
			return results, fmt.Errorf("link %s: %w", link.Name, err)
		}
		results = append(results, res)
	}

	return results, nil
}

// forceSymlink behaves like ln -sf
func forceSymlink(target, path string) (Result, error) {
	res := Result{Path: path, Target: target}

	info, err := os.Lstat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return res, fmt.Errorf("%s is a directory", path)
		}
		if err := os.Remove(path); err != nil {
			return res, fmt.Errorf("failed to remove existing %s: %w", path, err)
		}
		res.Replaced = true
	case !errors.Is(err, fs.ErrNotExist):
		return res, err
	}

	if err := os.Symlink(target, path); err != nil {
		return res, err
	}
	return res, nil
}

// OnPath reports whether dir is listed in the PATH value pathEnv
func OnPath(dir, pathEnv string) bool {
	clean := filepath.Clean(dir)
	for _, entry := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if entry != "" && filepath.Clean(entry) == clean {
			return true
		}
	}
	return false
}
