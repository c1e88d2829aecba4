package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return WithLogger(context.Background(), &logger)
}

// recordTask builds a task whose only command appends the task's name to
// *trace when it runs.
func recordTask(name, base string, deps []string, trace *[]string) *Task {
	return &Task{
		Short: name,
		Base:  base,
		Deps:  deps,
		Env:   map[string]string{},
		Cmds: []TaskCmd{TaskCmdAction{
			Label: name,
			Run: func(ctx context.Context) error {
				*trace = append(*trace, name)
				return nil
			},
		}},
	}
}

func TestRunTaskDeps(t *testing.T) {
	root := t.TempDir()

	t.Run("runs dependencies in order and only once", func(t *testing.T) {
		trace := []string{}
		list := TaskList{
			"a": recordTask("a", root, []string{"b", "c"}, &trace),
			"b": recordTask("b", root, []string{"c"}, &trace),
			"c": recordTask("c", root, nil, &trace),
		}

		err := RunTask(testContext(), root, "a", list, false, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, trace)
	})

	t.Run("detects recursive tasks", func(t *testing.T) {
		trace := []string{}
		list := TaskList{
			"a": recordTask("a", root, []string{"b"}, &trace),
			"b": recordTask("b", root, []string{"a"}, &trace),
		}

		err := RunTask(testContext(), root, "a", list, false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recursively")
		assert.Empty(t, trace)
	})

	t.Run("stops the chain on a failing dependency", func(t *testing.T) {
		trace := []string{}
		bad := &Task{
			Short: "bad",
			Base:  root,
			Env:   map[string]string{},
			Cmds:  []TaskCmd{TaskCmdScript{TaskName: "bad", Content: "false"}},
		}
		list := TaskList{
			"top":   recordTask("top", root, []string{"bad", "after"}, &trace),
			"bad":   bad,
			"after": recordTask("after", root, nil, &trace),
		}

		err := RunTask(testContext(), root, "top", list, false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "due to its dependency bad")
		assert.Empty(t, trace)
	})

	t.Run("fails on unknown tasks", func(t *testing.T) {
		err := RunTask(testContext(), root, "nope", TaskList{}, false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestRunTaskCmds(t *testing.T) {
	root := t.TempDir()

	t.Run("stops at the first failing command", func(t *testing.T) {
		trace := []string{}
		task := &Task{
			Short: "a",
			Base:  root,
			Env:   map[string]string{},
			Cmds: []TaskCmd{
				TaskCmdScript{TaskName: "a", Content: "false"},
				TaskCmdAction{Label: "never", Run: func(ctx context.Context) error {
					trace = append(trace, "never")
					return nil
				}},
			},
		}

		err := RunTask(testContext(), root, "a", TaskList{"a": task}, false, false)
		require.Error(t, err)
		assert.Empty(t, trace)
	})

	t.Run("shell commands see the task's base and env", func(t *testing.T) {
		task := &Task{
			Short: "a",
			Base:  root,
			Env:   map[string]string{"MARKER": "hello"},
			Cmds: []TaskCmd{
				TaskCmdScript{TaskName: "a", Content: "echo \"$MARKER\" > marker.txt"},
			},
		}

		err := RunTask(testContext(), root, "a", TaskList{"a": task}, false, false)
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(root, "marker.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(content))
	})

	t.Run("dry run executes nothing", func(t *testing.T) {
		trace := []string{}
		task := &Task{
			Short: "a",
			Base:  root,
			Env:   map[string]string{},
			Cmds: []TaskCmd{
				TaskCmdScript{TaskName: "a", Content: "echo oops > dry.txt"},
				TaskCmdAction{Label: "act", Run: func(ctx context.Context) error {
					trace = append(trace, "act")
					return nil
				}},
			},
		}

		err := RunTask(testContext(), root, "a", TaskList{"a": task}, true, false)
		require.NoError(t, err)
		assert.Empty(t, trace)
		assert.NoFileExists(t, filepath.Join(root, "dry.txt"))
	})
}

func TestRunTaskSkipIfExists(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "done.stamp"), []byte("x"), 0600))

	makeList := func(trace *[]string) TaskList {
		task := recordTask("a", root, nil, trace)
		task.SkipIfExists = []string{"done.stamp"}
		return TaskList{"a": task}
	}

	t.Run("skips when all skip files exist", func(t *testing.T) {
		trace := []string{}
		err := RunTask(testContext(), root, "a", makeList(&trace), false, false)
		require.NoError(t, err)
		assert.Empty(t, trace)
	})

	t.Run("force overrides the skip check", func(t *testing.T) {
		trace := []string{}
		err := RunTask(testContext(), root, "a", makeList(&trace), false, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, trace)
	})
}
