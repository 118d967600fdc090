package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry and task board statistics",
	RunE:  runStats,
}

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}
	stats, err := mgr.Stats()
	if err != nil {
		return err
	}

	coord, err := e.coordinator()
	if err != nil {
		return err
	}
	board, err := coord.Status()
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"registry": stats,
			"tasks":    board,
		})
	}

	fmt.Println(styleHeader.Render("REGISTRY"))
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("Agents:       %d (%s active, %s inactive)\n",
		stats.TotalAgents,
		styleActive.Render(fmt.Sprintf("%d", stats.ActiveAgents)),
		styleInactive.Render(fmt.Sprintf("%d", stats.InactiveAgents)))
	fmt.Printf("Next number:  %d\n", stats.NextAgentNumber)
	fmt.Printf("Last cleanup: %s\n", formatEpochMillis(stats.LastCleanup))
	fmt.Printf("File size:    %d bytes\n", stats.RegistrySize)
	fmt.Println()

	fmt.Println(styleHeader.Render("TASK BOARD"))
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("Tasks:        %d\n", board.Total)
	fmt.Printf("Pending:      %s\n", stylePending.Render(fmt.Sprintf("%d", board.Pending)))
	fmt.Printf("In progress:  %s\n", styleAgentID.Render(fmt.Sprintf("%d", board.InProgress)))
	fmt.Printf("Completed:    %s\n", styleActive.Render(fmt.Sprintf("%d", board.Completed)))
	fmt.Printf("Failed:       %s\n", styleFailed.Render(fmt.Sprintf("%d", board.Failed)))
	return nil
}
