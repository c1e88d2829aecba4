package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/AndrewDahm25/pymake/pkg/project"
	"github.com/AndrewDahm25/pymake/pkg/tasks"
	"github.com/AndrewDahm25/pymake/pkg/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [name...]",
	Short: "Reruns tasks whenever Python sources change",
	Long: `Watches the project tree and reruns the given tasks (delint by
default) whenever a Python source or one of the tool config files changes.
A failing run doesn't stop the watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		debounce, err := cmd.Flags().GetDuration("debounce")
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			names = []string{"delint"}
		}

		ctx, logger := newContext()

		fs, root, cfg, err := loadProject()
		if err != nil {
			return err
		}

		// fail early on unknown task names
		taskList, err := buildTaskList(ctx, fs, root, cfg, map[string]string{})
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, ok := taskList[name]; !ok {
				logger.Fatal().Msgf("Task %s not found", name)
			}
		}

		w, err := watcher.New(root, cfg.Exclude, debounce)
		if err != nil {
			return err
		}
		defer w.Close()

		go func() {
			for batch := range w.C {
				logger.Info().Msgf("%d file(s) changed, rerunning", len(batch))

				// reload so pymake.yaml and tasks.star edits are picked up
				cfg, err := project.LoadConfig(fs, root)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to reload config")
					continue
				}

				taskList, err := buildTaskList(ctx, fs, root, cfg, map[string]string{})
				if err != nil {
					logger.Error().Err(err).Msg("Failed to rebuild task list")
					continue
				}

				for _, name := range names {
					err = tasks.RunTask(ctx, root, name, taskList, false, false)
					if err != nil {
						logger.Error().Err(err).Msgf("Failed task %s:", name)
						break
					}
				}
			}
		}()

		logger.Info().Msgf("Watching %s", root)
		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "how long to wait for further changes before rerunning")

	rootCmd.AddCommand(watchCmd)
}
