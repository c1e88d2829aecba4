package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/AndrewDahm25/pymake/pkg/tasks"
)

// runTarget executes one of the standard maintenance tasks through the same
// engine the task command uses, so a tasks.star override applies here too.
func runTarget(name string) error {
	ctx, logger := newContext()

	fs, root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	taskList, err := buildTaskList(ctx, fs, root, cfg, map[string]string{})
	if err != nil {
		return err
	}

	err = tasks.RunTask(ctx, root, name, taskList, false, false)
	if err != nil {
		logger.Error().Err(err).Msgf("Failed task %s:", name)
		return eris.Errorf("Task %s failed", name)
	}

	return nil
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes compiled bytecode artifacts",
	Long: `Recursively removes *.pyc and *.pyo files from the project tree and
prunes empty __pycache__ directories. Succeeds even if there is nothing to
remove.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTarget("clean")
	},
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Reformats all Python sources in place",
	Long: `Runs the configured formatter recursively over the project tree using
the project style file. Local style overrides are ignored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTarget("format")
	},
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Runs the linter over all Python sources",
	Long: `Collects every *.py file in the project tree, skipping the excluded
directories from pymake.yaml, and passes them to the configured linter.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTarget("lint")
	},
}

var delintCmd = &cobra.Command{
	Use:   "delint",
	Short: "Formats, then lints",
	Long: `Runs the format task followed by the lint task. If formatting fails,
linting is not attempted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTarget("delint")
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Runs the unit test suite",
	Long: `Invokes the configured test runner against the configured test
modules. The runner's exit status becomes this command's exit status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTarget("test")
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(delintCmd)
	rootCmd.AddCommand(testCmd)
}
