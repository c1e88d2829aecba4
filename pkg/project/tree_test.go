package project

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path string) {
	t.Helper()

	err := afero.WriteFile(fs, path, []byte("content"), 0644)
	require.NoError(t, err)
}

func TestCleanBytecode(t *testing.T) {
	t.Run("removes exactly the bytecode files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/a.pyc")
		writeFile(t, fs, "/proj/b.pyo")
		writeFile(t, fs, "/proj/c.py")
		writeFile(t, fs, "/proj/sub/d.pyc")

		removed, err := CleanBytecode(fs, "/proj")
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		for _, gone := range []string{"/proj/a.pyc", "/proj/b.pyo", "/proj/sub/d.pyc"} {
			exists, err := afero.Exists(fs, gone)
			require.NoError(t, err)
			assert.False(t, exists, gone)
		}

		exists, err := afero.Exists(fs, "/proj/c.py")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("succeeds on a tree without bytecode", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/c.py")

		removed, err := CleanBytecode(fs, "/proj")
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
	})

	t.Run("prunes emptied pycache directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/__pycache__/a.cpython-39.pyc")
		writeFile(t, fs, "/proj/__pycache__/keepme.txt")
		writeFile(t, fs, "/proj/sub/__pycache__/b.pyc")

		removed, err := CleanBytecode(fs, "/proj")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		// still contains a foreign file, must survive
		exists, err := afero.Exists(fs, "/proj/__pycache__/keepme.txt")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = afero.DirExists(fs, "/proj/sub/__pycache__")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestSources(t *testing.T) {
	t.Run("collects python files recursively", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/main.py")
		writeFile(t, fs, "/proj/lib/helper.py")
		writeFile(t, fs, "/proj/README.md")

		files, err := Sources(fs, "/proj", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"lib/helper.py", "main.py"}, files)
	})

	t.Run("never descends into excluded directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/main.py")
		writeFile(t, fs, "/proj/depricated/old.py")
		writeFile(t, fs, "/proj/sub/depricated/older.py")

		files, err := Sources(fs, "/proj", []string{"depricated"})
		require.NoError(t, err)
		assert.Equal(t, []string{"main.py"}, files)
	})

	t.Run("skips pycache and hidden directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/proj/main.py")
		writeFile(t, fs, "/proj/__pycache__/main.py")
		writeFile(t, fs, "/proj/.tools/setup.py")

		files, err := Sources(fs, "/proj", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"main.py"}, files)
	})
}
