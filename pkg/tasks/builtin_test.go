package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewDahm25/pymake/pkg/project"
)

func TestBuiltinTasks(t *testing.T) {
	root := t.TempDir()
	cfg := project.DefaultConfig()
	list := BuiltinTasks(afero.NewOsFs(), cfg, root)

	for _, name := range []string{"clean", "format", "lint", "delint", "test"} {
		require.Contains(t, list, name)
		assert.Equal(t, name, list[name].Short)
		assert.Equal(t, root, list[name].Base)
		assert.False(t, list[name].Hidden)
	}

	format := list["format"].Cmds[0].(TaskCmdScript).Content
	assert.Equal(t, "yapf3 -i -r --style .style.yapf --no-local-style .", format)

	test := list["test"].Cmds[0].(TaskCmdScript).Content
	assert.Equal(t, "nosetests3 student_function_unittest.py", test)

	assert.Equal(t, []string{"format", "lint"}, list["delint"].Deps)
	assert.Empty(t, list["delint"].Cmds)
}

func TestBuiltinClean(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "main.py")
	junk := filepath.Join(root, "main.pyc")
	require.NoError(t, os.WriteFile(keep, []byte("pass\n"), 0600))
	require.NoError(t, os.WriteFile(junk, []byte("\x00"), 0600))

	list := BuiltinTasks(afero.NewOsFs(), project.DefaultConfig(), root)
	err := RunTask(testContext(), root, "clean", list, false, false)
	require.NoError(t, err)

	assert.FileExists(t, keep)
	assert.NoFileExists(t, junk)
}

func TestBuiltinLint(t *testing.T) {
	t.Run("passes the rcfile and every source to the linter", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("pass\n"), 0600))

		cfg := project.DefaultConfig()
		// echo accepts any arguments, which keeps the test independent of
		// an installed linter
		cfg.Linter = "echo"

		list := BuiltinTasks(afero.NewOsFs(), cfg, root)
		err := RunTask(testContext(), root, "lint", list, false, false)
		assert.NoError(t, err)
	})

	t.Run("succeeds without sources and never invokes the linter", func(t *testing.T) {
		root := t.TempDir()

		cfg := project.DefaultConfig()
		cfg.Linter = "definitely-not-installed"

		list := BuiltinTasks(afero.NewOsFs(), cfg, root)
		err := RunTask(testContext(), root, "lint", list, false, false)
		assert.NoError(t, err)
	})
}

func TestBuiltinTest(t *testing.T) {
	root := t.TempDir()

	cfg := project.DefaultConfig()
	cfg.TestRunner = "false"

	list := BuiltinTasks(afero.NewOsFs(), cfg, root)
	err := RunTask(testContext(), root, "test", list, false, false)
	assert.Error(t, err, "a failing test runner must fail the task")
}

func TestBuiltinDelint(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("pass\n"), 0600))

	t.Run("halts before lint when format fails", func(t *testing.T) {
		cfg := project.DefaultConfig()
		cfg.Formatter = "false"
		cfg.Linter = "echo"

		list := BuiltinTasks(afero.NewOsFs(), cfg, root)
		err := RunTask(testContext(), root, "delint", list, false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "due to its dependency format")
	})

	t.Run("runs format and lint in order", func(t *testing.T) {
		cfg := project.DefaultConfig()
		// stand-ins that always succeed
		cfg.Formatter = "true"
		cfg.Linter = "echo"

		list := BuiltinTasks(afero.NewOsFs(), cfg, root)
		err := RunTask(testContext(), root, "delint", list, false, false)
		assert.NoError(t, err)
	})
}
