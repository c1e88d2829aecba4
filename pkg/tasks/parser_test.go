package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, root, content string) string {
	t.Helper()

	filename := filepath.Join(root, ScriptName)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0600))
	return filename
}

func TestRunScript(t *testing.T) {
	t.Run("collects declared tasks", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, `
def configure():
    task(
        short="build",
        desc="build the project",
        deps=["prep"],
        env={"MODE": "fast"},
        cmds=["echo hi"],
    )
    task(short="prep", cmds=[("echo", "two words")])
`)

		list, _, err := RunScript(testContext(), filename, root, map[string]string{}, nil, true)
		require.NoError(t, err)
		require.Len(t, list, 2)

		build := list["build"]
		require.NotNil(t, build)
		assert.Equal(t, "build the project", build.Desc)
		assert.Equal(t, []string{"prep"}, build.Deps)
		assert.Equal(t, map[string]string{"MODE": "fast"}, build.Env)
		require.Len(t, build.Cmds, 1)
		assert.Equal(t, TaskCmdScript{TaskName: "build", Content: "echo hi"}, build.Cmds[0])

		prep := list["prep"]
		require.NotNil(t, prep)
		require.Len(t, prep.Cmds, 1)
		// arguments with spaces survive as a single shell word
		assert.Contains(t, prep.Cmds[0].(TaskCmdScript).Content, "'two words'")
	})

	t.Run("unnamed tasks stay hidden", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, `
def configure():
    sub = task(cmds=["true"])
    task(short="main", cmds=[sub])
`)

		list, _, err := RunScript(testContext(), filename, root, map[string]string{}, nil, true)
		require.NoError(t, err)
		require.Len(t, list, 1)

		main := list["main"]
		require.NotNil(t, main)
		require.Len(t, main.Cmds, 1)

		sub, err := main.Cmds[0].ToTask()
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.True(t, sub.Hidden)
	})

	t.Run("requires a configure function", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, `task(short="orphan", cmds=["true"])`)

		_, _, err := RunScript(testContext(), filename, root, map[string]string{}, nil, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configure")
	})
}

func TestRunScriptOptions(t *testing.T) {
	script := `
linter = option("linter", default="pylint", help="linter binary")

def configure():
    task(short="lint", cmds=[(linter, "main.py")])
`

	t.Run("declared defaults apply", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, script)

		list, options, err := RunScript(testContext(), filename, root, map[string]string{}, nil, true)
		require.NoError(t, err)

		require.Contains(t, options, "linter")
		assert.Equal(t, "pylint", options["linter"].Default())
		assert.Equal(t, "linter binary", options["linter"].Help)

		require.NotNil(t, list["lint"])
		assert.Contains(t, list["lint"].Cmds[0].(TaskCmdScript).Content, "pylint")
	})

	t.Run("passed values override the default", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, script)

		list, _, err := RunScript(testContext(), filename, root, map[string]string{"linter": "flake8"}, nil, true)
		require.NoError(t, err)

		require.NotNil(t, list["lint"])
		assert.Contains(t, list["lint"].Cmds[0].(TaskCmdScript).Content, "flake8")
	})

	t.Run("option calls are limited to the init phase", func(t *testing.T) {
		root := t.TempDir()
		filename := writeScript(t, root, `
def configure():
    option("late", default="x")
`)

		_, _, err := RunScript(testContext(), filename, root, map[string]string{}, nil, true)
		assert.Error(t, err)
	})
}

func TestRunScriptPySources(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("pass\n"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "depricated"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "depricated", "old.py"), []byte("pass\n"), 0600))

	filename := writeScript(t, root, `
def configure():
    task(short="lint", cmds=[("echo",) + py_sources()])
`)

	list, _, err := RunScript(testContext(), filename, root, map[string]string{}, []string{"depricated"}, true)
	require.NoError(t, err)

	require.NotNil(t, list["lint"])
	content := list["lint"].Cmds[0].(TaskCmdScript).Content
	assert.Contains(t, content, "main.py")
	assert.NotContains(t, content, "old.py")
}
