// Package cmd implements the pymake CLI.
package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AndrewDahm25/pymake/pkg"
	"github.com/AndrewDahm25/pymake/pkg/project"
	"github.com/AndrewDahm25/pymake/pkg/tasks"
)

var rootCmd = &cobra.Command{
	Use:   "pymake",
	Short: "Portable maintenance tasks for Python projects",
	Long: `pymake replaces the usual maintenance Makefile of a Python project.
The standard targets (clean, format, lint, delint, test) are built in and can
be adjusted through pymake.yaml; additional tasks can be declared in a
tasks.star script.`,
	SilenceUsage: true,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// newContext builds the logging context every command runs with
func newContext() (context.Context, *zerolog.Logger) {
	logger := zerolog.New(NewConsoleWriter())
	ctx := tasks.WithLogger(context.Background(), &logger)
	return ctx, &logger
}

// loadProject locates the project root and reads its configuration
func loadProject() (afero.Fs, string, *project.Config, error) {
	fs := afero.NewOsFs()

	root, err := pkg.GetProjectRoot()
	if err != nil {
		// no marker found; fall back to the working directory so the tool
		// stays usable in throwaway trees
		root, err = os.Getwd()
		if err != nil {
			return nil, "", nil, eris.Wrap(err, "Failed to retrieve the current working directory")
		}
	}

	cfg, err := project.LoadConfig(fs, root)
	if err != nil {
		return nil, "", nil, err
	}

	return fs, root, cfg, nil
}

// buildTaskList merges the built-in tasks with the project's task script,
// if one exists. Script tasks take precedence over built-ins of the same
// name.
func buildTaskList(ctx context.Context, fs afero.Fs, root string, cfg *project.Config, options map[string]string) (tasks.TaskList, error) {
	list := tasks.BuiltinTasks(fs, cfg, root)

	scriptPath := filepath.Join(root, tasks.ScriptName)
	_, err := os.Stat(scriptPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return list, nil
		}
		return nil, eris.Wrapf(err, "Failed to check %s", scriptPath)
	}

	scriptTasks, err := parseScript(ctx, scriptPath, root, cfg, options)
	if err != nil {
		return nil, err
	}

	for name, task := range scriptTasks {
		list[name] = task
	}

	return list, nil
}
