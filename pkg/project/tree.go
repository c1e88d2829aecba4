package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// bytecodeExts lists the compiled artifact extensions removed by the clean
// task. They are safe to delete, the runtime regenerates them on demand.
var bytecodeExts = []string{".pyc", ".pyo"}

func isBytecode(name string) bool {
	for _, ext := range bytecodeExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func skipDir(name string, excludes []string) bool {
	if name == "__pycache__" || strings.HasPrefix(name, ".") {
		return true
	}

	for _, excluded := range excludes {
		if name == excluded {
			return true
		}
	}
	return false
}

// CleanBytecode removes every compiled bytecode file below root and prunes
// __pycache__ directories that end up empty. It returns the number of files
// removed. A tree without any bytecode is fine, not an error.
func CleanBytecode(fs afero.Fs, root string) (int, error) {
	var victims []string
	var caches []string

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// entries that vanish mid-walk don't matter, we only delete
			if eris.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			if filepath.Base(path) == "__pycache__" {
				caches = append(caches, path)
			}
			return nil
		}

		if isBytecode(info.Name()) {
			victims = append(victims, path)
		}
		return nil
	})
	if err != nil {
		return 0, eris.Wrapf(err, "Failed to scan %s for bytecode files", root)
	}

	removed := 0
	for _, item := range victims {
		err = fs.Remove(item)
		if err != nil {
			if eris.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, eris.Wrapf(err, "Could not delete %s", item)
		}
		removed++
	}

	// deepest first so nested cache directories empty out before their parents
	sort.Sort(sort.Reverse(sort.StringSlice(caches)))
	for _, item := range caches {
		entries, err := afero.ReadDir(fs, item)
		if err != nil || len(entries) > 0 {
			continue
		}

		// ignore failures here, a stubborn empty directory is harmless
		_ = fs.Remove(item)
	}

	return removed, nil
}

// Sources returns the relative paths of all Python source files below root,
// sorted, skipping excluded directories at any depth as well as __pycache__
// and hidden directories.
func Sources(fs afero.Fs, root string, excludes []string) ([]string, error) {
	result := []string{}

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && skipDir(filepath.Base(path), excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), ".py") {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		result = append(result, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to scan %s for Python sources", root)
	}

	sort.Strings(result)
	return result, nil
}
