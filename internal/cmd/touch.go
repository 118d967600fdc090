package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var touchCmd = &cobra.Command{
	Use:   "touch <agent-id>",
	Short: "Record activity for an agent",
	Long: `Bump an agent's request counter and refresh its activity timestamp,
keeping the slot from going inactive.`,
	Args: cobra.ExactArgs(1),
	RunE: runTouch,
}

func init() {
	rootCmd.AddCommand(touchCmd)
}

func runTouch(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}

	agentID := args[0]
	found, err := mgr.UpdateActivity(agentID)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("Agent %s is not registered\n", agentID)
		return nil
	}

	fmt.Printf("Recorded activity for %s\n", styleAgentID.Render(agentID))
	return nil
}
