package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Iron-Ham/hive/internal/registry"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this session and claim an agent slot",
	Long: `Register a session in the shared agent registry.

A session registering for the first time is assigned the lowest available
agent number; re-registering the same session ID is idempotent and bumps
the request counter. Slots abandoned past the inactivity timeout are
reassigned to new sessions.`,
	RunE: runRegister,
}

var (
	registerSession        string
	registerRole           string
	registerSpecialization []string
	registerCapabilities   []string
	registerJSON           bool
)

func init() {
	registerCmd.Flags().StringVar(&registerSession, "session", "", "Session ID (generated when omitted)")
	registerCmd.Flags().StringVar(&registerRole, "role", "", "Agent role, e.g. worker, reviewer")
	registerCmd.Flags().StringSliceVar(&registerSpecialization, "specialization", nil, "Agent specializations")
	registerCmd.Flags().StringSliceVar(&registerCapabilities, "capabilities", nil, "Agent capabilities")
	registerCmd.Flags().BoolVar(&registerJSON, "json", false, "Output the registration result as JSON")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	mgr, err := e.manager()
	if err != nil {
		return err
	}

	result, err := mgr.Initialize(registry.AgentInfo{
		SessionID:      registerSession,
		Role:           registerRole,
		Specialization: registerSpecialization,
		Capabilities:   registerCapabilities,
	})
	if err != nil {
		return err
	}

	if registerJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch result.Action {
	case registry.ActionReusedExisting:
		fmt.Printf("Reused existing slot %s for session %s (request #%d)\n",
			styleAgentID.Render(result.AgentID), result.SessionID, result.TotalRequests)
	case registry.ActionReusedInactiveSlot:
		fmt.Printf("Took over inactive slot %s (previously session %s)\n",
			styleAgentID.Render(result.AgentID), result.PreviousAgent.SessionID)
	default:
		fmt.Printf("Registered %s for session %s\n",
			styleAgentID.Render(result.AgentID), result.SessionID)
	}
	return nil
}
