package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Iron-Ham/hive/internal/registry"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List registered agents",
	RunE:  runAgents,
}

var (
	agentsAll  bool
	agentsJSON bool
)

func init() {
	agentsCmd.Flags().BoolVar(&agentsAll, "all", false, "Include inactive slots")
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "Output agents as JSON")
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}

	var agents []*registry.AgentEntry
	if agentsAll {
		agents, err = mgr.AllAgents()
	} else {
		agents, err = mgr.ActiveAgents()
	}
	if err != nil {
		return err
	}

	if agentsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(agents)
	}

	if len(agents) == 0 {
		fmt.Println("No agents registered")
		return nil
	}

	fmt.Println(styleHeader.Render("AGENTS"))
	for _, agent := range agents {
		status := styleActive.Render(string(agent.Status))
		if agent.Status == registry.StatusInactive {
			status = styleInactive.Render(string(agent.Status))
		}
		fmt.Printf("%-10s %-8s session=%s requests=%d last=%s\n",
			styleAgentID.Render(agent.AgentID),
			status,
			agent.SessionID,
			agent.TotalRequests,
			formatEpochMillis(agent.LastActivity),
		)
	}
	return nil
}

// formatEpochMillis renders an epoch-milliseconds timestamp for display.
func formatEpochMillis(ms int64) string {
	if ms == 0 {
		return "never"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
