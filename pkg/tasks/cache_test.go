package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundtrip(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "tasks.cache")

	options := map[string]string{"linter": "flake8"}
	list := TaskList{
		"build": {
			Short: "build",
			Desc:  "build the project",
			Base:  "/proj",
			Deps:  []string{"prep"},
			Env:   map[string]string{"MODE": "fast"},
			Cmds:  []TaskCmd{TaskCmdScript{TaskName: "build", Content: "echo hi"}},
		},
	}

	require.NoError(t, WriteCache(cacheFile, options, list))

	gotOptions, gotList, err := ReadCache(cacheFile)
	require.NoError(t, err)
	assert.Equal(t, options, gotOptions)
	require.Contains(t, gotList, "build")
	assert.Equal(t, list["build"].Desc, gotList["build"].Desc)
	assert.Equal(t, list["build"].Deps, gotList["build"].Deps)
	assert.Equal(t, list["build"].Env, gotList["build"].Env)
	assert.Equal(t, list["build"].Cmds, gotList["build"].Cmds)
}

func TestCacheSkipsActionTasks(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "tasks.cache")

	list := TaskList{
		"scripted": {
			Short: "scripted",
			Cmds:  []TaskCmd{TaskCmdScript{TaskName: "scripted", Content: "true"}},
		},
		"native": {
			Short: "native",
			Cmds: []TaskCmd{TaskCmdAction{
				Label: "native",
				Run:   func(ctx context.Context) error { return nil },
			}},
		},
	}

	require.NoError(t, WriteCache(cacheFile, map[string]string{}, list))

	_, gotList, err := ReadCache(cacheFile)
	require.NoError(t, err)
	assert.Contains(t, gotList, "scripted")
	assert.NotContains(t, gotList, "native")
}

func TestCacheMissingFile(t *testing.T) {
	_, _, err := ReadCache(filepath.Join(t.TempDir(), "nope.cache"))
	assert.Error(t, err)
}
