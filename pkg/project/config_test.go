package project

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("falls back to the defaults without a config file", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		cfg, err := LoadConfig(fs, "/proj")
		require.NoError(t, err)

		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, "yapf3", cfg.Formatter)
		assert.Equal(t, "pylint", cfg.Linter)
		assert.Equal(t, "nosetests3", cfg.TestRunner)
		assert.Equal(t, []string{"student_function_unittest.py"}, cfg.Tests)
		assert.Equal(t, []string{"depricated"}, cfg.Exclude)
	})

	t.Run("merges overrides over the defaults", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := []byte("linter: flake8\ntests:\n  - test_a.py\n  - test_b.py\n")
		require.NoError(t, afero.WriteFile(fs, "/proj/pymake.yaml", content, 0644))

		cfg, err := LoadConfig(fs, "/proj")
		require.NoError(t, err)

		assert.Equal(t, "flake8", cfg.Linter)
		assert.Equal(t, []string{"test_a.py", "test_b.py"}, cfg.Tests)
		// untouched fields keep their defaults
		assert.Equal(t, "yapf3", cfg.Formatter)
		assert.Equal(t, ".style.yapf", cfg.Style)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/proj/pymake.yaml", []byte(":\t:"), 0644))

		_, err := LoadConfig(fs, "/proj")
		assert.Error(t, err)
	})
}
