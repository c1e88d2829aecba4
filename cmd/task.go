package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/AndrewDahm25/pymake/pkg/project"
	"github.com/AndrewDahm25/pymake/pkg/tasks"
)

// cacheName is the file the parsed task script is cached in, next to the script
const cacheName = ".pymake.cache"

var taskCmd = &cobra.Command{
	Use:   "task [key=value...] [name...]",
	Short: "Runs tasks from the project's tasks.star script",
	Long: `Parses the project's tasks.star script and runs the given tasks. The
built-in maintenance tasks are available as well and can be overridden by the
script. Without task names, all available tasks are listed. key=value
arguments override script options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskArgs := make([]string, 0)
		options := make(map[string]string)
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos > -1 {
				options[part[:pos]] = part[pos+1:]
			} else {
				taskArgs = append(taskArgs, part)
			}
		}

		ctx, logger := newContext()

		fs, root, cfg, err := loadProject()
		if err != nil {
			return err
		}

		taskList, err := buildTaskList(ctx, fs, root, cfg, options)
		if err != nil {
			return err
		}

		for _, name := range taskArgs {
			err = tasks.RunTask(ctx, root, name, taskList, dryRun, force)
			if err != nil {
				logger.Error().Err(err).Msgf("Failed task %s:", name)
				return eris.Errorf("Task %s failed", name)
			}
		}

		if len(taskArgs) == 0 {
			listTasks(taskList)
		}

		return nil
	},
}

func listTasks(taskList tasks.TaskList) {
	fmt.Println("Available tasks:")
	maxNameLen := 0
	sortedNames := make([]string, 0)
	for _, task := range taskList {
		if task.Hidden {
			continue
		}

		nameLen := len(task.Short)
		if nameLen > maxNameLen {
			maxNameLen = nameLen
		}

		sortedNames = append(sortedNames, task.Short)
	}

	sort.Strings(sortedNames)

	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
	for _, name := range sortedNames {
		fmt.Printf(lineFmt, name+":", taskList[name].Desc)
	}
}

// parseScript runs the task script, going through the gob cache whenever the
// script hasn't changed since the last parse with the same options.
func parseScript(ctx context.Context, scriptPath, root string, cfg *project.Config, options map[string]string) (tasks.TaskList, error) {
	cachePath := filepath.Join(filepath.Dir(scriptPath), cacheName)

	scriptInfo, err := os.Stat(scriptPath)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to check %s", scriptPath)
	}

	cacheInfo, err := os.Stat(cachePath)
	if err == nil && cacheInfo.ModTime().After(scriptInfo.ModTime()) {
		cachedOptions, cached, err := tasks.ReadCache(cachePath)
		if err == nil && reflect.DeepEqual(cachedOptions, options) {
			return cached, nil
		}
		// a stale or unreadable cache is simply reparsed
	}

	list, _, err := tasks.RunScript(ctx, scriptPath, root, options, cfg.Exclude, true)
	if err != nil {
		return nil, err
	}

	err = tasks.WriteCache(cachePath, options, list)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to write task cache %s", cachePath)
	}

	return list, nil
}

func init() {
	taskCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	taskCmd.Flags().BoolP("force", "f", false, "force build; always execute the passed tasks even if they don't have to run")

	rootCmd.AddCommand(taskCmd)
}
