package tasks

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/AndrewDahm25/pymake/pkg/project"
)

func shellWords(args ...string) string {
	quoted := make([]string, len(args))
	for idx, arg := range args {
		if strings.ContainsAny(arg, " $'\"") {
			quoted[idx] = "'" + arg + "'"
		} else {
			quoted[idx] = arg
		}
	}
	return strings.Join(quoted, " ")
}

// BuiltinTasks constructs the standard maintenance tasks for a Python
// project tree from its configuration. The returned list always contains
// clean, format, lint, delint and test.
func BuiltinTasks(fs afero.Fs, cfg *project.Config, root string) TaskList {
	clean := &Task{
		Short: "clean",
		Desc:  "remove compiled bytecode artifacts (*.pyc, *.pyo)",
		Base:  root,
		Env:   map[string]string{},
		Cmds: []TaskCmd{TaskCmdAction{
			Label: "clean bytecode",
			Run: func(ctx context.Context) error {
				removed, err := project.CleanBytecode(fs, root)
				if err != nil {
					return err
				}

				log(ctx).Info().
					Str("task", "clean").
					Msgf("removed %d bytecode file(s)", removed)
				return nil
			},
		}},
	}

	format := &Task{
		Short: "format",
		Desc:  "reformat all Python sources in place",
		Base:  root,
		Env:   map[string]string{},
		Cmds: []TaskCmd{TaskCmdScript{
			TaskName: "format",
			Content:  shellWords(cfg.Formatter, "-i", "-r", "--style", cfg.Style, "--no-local-style", "."),
		}},
	}

	lint := &Task{
		Short: "lint",
		Desc:  "run the linter over all Python sources",
		Base:  root,
		Env:   map[string]string{},
		Cmds: []TaskCmd{TaskCmdAction{
			Label: "lint sources",
			Run: func(ctx context.Context) error {
				files, err := project.Sources(fs, root, cfg.Exclude)
				if err != nil {
					return err
				}

				if len(files) == 0 {
					log(ctx).Info().
						Str("task", "lint").
						Msg("no Python sources found, nothing to lint")
					return nil
				}

				argv := []string{cfg.Linter, "--rcfile", cfg.RCFile}
				argv = append(argv, files...)
				return runArgv(ctx, root, nil, argv)
			},
		}},
	}

	// format first, then lint; deps run in order and the first failure stops
	// the chain, so a broken format never hands unformatted sources to lint.
	// Name-based deps also mean a tasks.star override of either task applies.
	delint := &Task{
		Short: "delint",
		Desc:  "format, then lint",
		Base:  root,
		Env:   map[string]string{},
		Deps:  []string{"format", "lint"},
		Cmds:  []TaskCmd{},
	}

	test := &Task{
		Short: "test",
		Desc:  "run the unit test suite",
		Base:  root,
		Env:   map[string]string{},
		Cmds: []TaskCmd{TaskCmdScript{
			TaskName: "test",
			Content:  shellWords(append([]string{cfg.TestRunner}, cfg.Tests...)...),
		}},
	}

	return TaskList{
		clean.Short:  clean,
		format.Short: format,
		lint.Short:   lint,
		delint.Short: delint,
		test.Short:   test,
	}
}
