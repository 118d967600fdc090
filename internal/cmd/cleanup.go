package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Force a cleanup pass over the registry",
	Long: `Run a cleanup pass immediately, regardless of the configured interval,
marking agents idle past the inactivity timeout as inactive so their
slots can be reassigned.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}

	deactivated, err := mgr.CleanupNow()
	if err != nil {
		return err
	}

	if len(deactivated) == 0 {
		fmt.Println("No idle agents to deactivate")
		return nil
	}
	for _, agentID := range deactivated {
		fmt.Printf("Deactivated %s\n", styleAgentID.Render(agentID))
	}
	return nil
}
