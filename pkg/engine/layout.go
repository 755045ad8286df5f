package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	profilesDirName = "profiles2"
	maxSearchDepth  = 2
)

var errFound = errors.New("found")

// describe locates the entry point and the profiles directory of a bundle in dir.
func (e *Engine) describe(dir string) (Bundle, error) {
	var entry string
	if e.cfg.Executable != "" {
		entry = filepath.Join(dir, filepath.Clean(e.cfg.Executable))
		info, err := os.Stat(entry)
		if err != nil {
			return Bundle{}, fmt.Errorf("engine executable: %w", err)
		}
		if info.IsDir() {
			return Bundle{}, fmt.Errorf("engine executable %s is a directory", e.cfg.Executable)
		}
	} else {
		jar, err := findJar(dir)
		if err != nil {
			return Bundle{}, err
		}
		entry = jar
	}

	profiles := findDir(dir, profilesDirName)
	if profiles == "" {
		profiles = dir
	}
	return Bundle{Dir: dir, EntryPoint: entry, ProfilesDir: profiles}, nil
}

// findJar prefers a jar whose name mentions brouter, else the first jar found.
func findJar(dir string) (string, error) {
	var first, named string
	err := walkShallow(dir, func(path string, d fs.DirEntry) error {
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".jar") {
			return nil
		}
		if first == "" {
			first = path
		}
		if strings.Contains(strings.ToLower(d.Name()), "brouter") {
			named = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", err
	}
	switch {
	case named != "":
		return named, nil
	case first != "":
		return first, nil
	default:
		return "", fmt.Errorf("no engine jar in %s", dir)
	}
}

func findDir(dir, name string) string {
	var found string
	_ = walkShallow(dir, func(path string, d fs.DirEntry) error {
		if d.IsDir() && d.Name() == name {
			found = path
			return errFound
		}
		return nil
	})
	return found
}

func walkShallow(dir string, fn func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		depth := strings.Count(rel, string(filepath.Separator))
		if d.IsDir() && depth >= maxSearchDepth {
			return filepath.SkipDir
		}
		return fn(path, d)
	})
}
