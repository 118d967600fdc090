package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Iron-Ham/hive/internal/errs"
	"github.com/Iron-Ham/hive/internal/taskboard"
	"github.com/Iron-Ham/hive/internal/util"
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and mutate the shared task board",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks on the board",
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <task-id>",
	Short: "Add a pending task to the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksAdd,
}

var tasksClaimCmd = &cobra.Command{
	Use:   "claim <task-id> <agent-id>",
	Short: "Claim a pending task for an agent",
	Long: `Atomically assign a pending task to an agent.

The claim is rejected when the task is already held, and blocked when any
of the task's dependencies has not completed.`,
	Args: cobra.ExactArgs(2),
	RunE: runTasksClaim,
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark an in-progress task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksComplete,
}

var tasksReleaseCmd = &cobra.Command{
	Use:   "release <task-id>",
	Short: "Return a claimed task to pending",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksRelease,
}

var (
	tasksListJSON     bool
	tasksAddTitle     string
	tasksAddDependsOn []string
)

func init() {
	tasksListCmd.Flags().BoolVar(&tasksListJSON, "json", false, "Output tasks as JSON")
	tasksAddCmd.Flags().StringVar(&tasksAddTitle, "title", "", "Task title")
	tasksAddCmd.Flags().StringSliceVar(&tasksAddDependsOn, "depends-on", nil, "Task IDs that must complete first")

	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksClaimCmd, tasksCompleteCmd, tasksReleaseCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	tasks, err := coord.List()
	if err != nil {
		return err
	}

	if tasksListJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks on the board")
		return nil
	}

	fmt.Println(styleHeader.Render("TASKS"))
	for _, task := range tasks {
		line := fmt.Sprintf("%-16s %-12s", task.ID, styleTaskStatus(task.Status))
		if task.Title != "" {
			line += " " + util.TruncateString(task.Title, 48)
		}
		if task.AssignedAgent != "" {
			line += fmt.Sprintf(" [%s]", styleAgentID.Render(task.AssignedAgent))
		}
		if len(task.Dependencies) > 0 {
			line += fmt.Sprintf(" (after %v)", task.Dependencies)
		}
		fmt.Println(line)
	}
	return nil
}

// styleTaskStatus colors a task status for display.
func styleTaskStatus(status taskboard.TaskStatus) string {
	switch status {
	case taskboard.StatusPending:
		return stylePending.Render(string(status))
	case taskboard.StatusInProgress:
		return styleAgentID.Render(string(status))
	case taskboard.StatusCompleted:
		return styleActive.Render(string(status))
	case taskboard.StatusFailed:
		return styleFailed.Render(string(status))
	}
	return string(status)
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	task := &taskboard.Task{
		ID:           args[0],
		Title:        tasksAddTitle,
		Dependencies: tasksAddDependsOn,
	}
	if err := coord.Add(task); err != nil {
		return err
	}

	fmt.Printf("Added task %s\n", task.ID)
	return nil
}

func runTasksClaim(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	taskID, agentID := args[0], args[1]
	task, err := coord.Claim(taskID, agentID)
	if err != nil {
		var depErr *taskboard.DependencyError
		if errs.As(err, &depErr) {
			fmt.Println(depErr.Error())
			fmt.Println(depErr.Instructions())
			return err
		}
		return err
	}

	fmt.Printf("Claimed %s for %s\n", task.ID, styleAgentID.Render(agentID))
	return nil
}

func runTasksComplete(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	task, err := coord.Complete(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Completed %s\n", task.ID)
	return nil
}

func runTasksRelease(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	coord, err := e.coordinator()
	if err != nil {
		return err
	}

	task, err := coord.Release(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Released %s back to pending\n", task.ID)
	return nil
}
