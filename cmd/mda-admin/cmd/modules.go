package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage dealership module grants and role gates",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List platform modules",
	RunE:  runModulesList,
}

var modulesEnableCmd = &cobra.Command{
	Use:   "enable <dealership-id> <module>",
	Short: "Enable a module for a dealership",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setModuleGrant(args[0], args[1], true)
	},
}

var modulesDisableCmd = &cobra.Command{
	Use:   "disable <dealership-id> <module>",
	Short: "Disable a module for a dealership",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setModuleGrant(args[0], args[1], false)
	},
}

var modulesGateCmd = &cobra.Command{
	Use:   "gate <role-id> <module> <open|closed>",
	Short: "Open or close a role's module gate",
	Long: `Open or close a role's module gate.

Closing a gate suppresses the role's grants for that module without
removing them; reopening the gate restores them.`,
	Args: cobra.ExactArgs(3),
	RunE: runModulesGate,
}

func init() {
	modulesCmd.AddCommand(modulesListCmd)
	modulesCmd.AddCommand(modulesEnableCmd)
	modulesCmd.AddCommand(modulesDisableCmd)
	modulesCmd.AddCommand(modulesGateCmd)
}

func runModulesList(cmd *cobra.Command, args []string) error {
	body, err := apiClient().Get("/api/v1/catalog/modules")
	if err != nil {
		return err
	}
	return printJSON(body)
}

func setModuleGrant(dealershipID, module string, enabled bool) error {
	path := fmt.Sprintf("/api/v1/dealerships/%s/modules/%s", dealershipID, module)
	if _, err := apiClient().Put(path, map[string]bool{"enabled": enabled}); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Module %s %s for dealership %s\n", module, state, dealershipID)
	return nil
}

func runModulesGate(cmd *cobra.Command, args []string) error {
	roleID, module, state := args[0], args[1], args[2]

	var enabled bool
	switch state {
	case "open":
		enabled = true
	case "closed":
		enabled = false
	default:
		return fmt.Errorf("gate state must be open or closed, got %q", state)
	}

	path := fmt.Sprintf("/api/v1/roles/%s/gates/%s", roleID, module)
	if _, err := apiClient().Put(path, map[string]bool{"enabled": enabled}); err != nil {
		return err
	}
	fmt.Printf("Gate %s %s for role %s\n", module, state, roleID)
	return nil
}
