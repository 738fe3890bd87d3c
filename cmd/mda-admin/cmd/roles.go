package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage roles",
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create <dealership-id> <name>",
	Short: "Create a role within a dealership",
	Args:  cobra.ExactArgs(2),
	RunE:  runRolesCreate,
}

var rolesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <role-id>",
	Short: "Deactivate a role",
	Long: `Deactivate a role.

Deactivation excludes the role from resolution for every member. The
role's gates and grants stay in place and come back if the role is
later reactivated.`,
	Args: cobra.ExactArgs(1),
	RunE: runRolesDeactivate,
}

func init() {
	rolesCreateCmd.Flags().String("description", "", "Role description")

	rolesCmd.AddCommand(rolesCreateCmd)
	rolesCmd.AddCommand(rolesDeactivateCmd)
}

func runRolesCreate(cmd *cobra.Command, args []string) error {
	dealershipID, name := args[0], args[1]
	description, _ := cmd.Flags().GetString("description")

	path := fmt.Sprintf("/api/v1/dealerships/%s/roles", dealershipID)
	body, err := apiClient().Post(path, map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return err
	}
	return printJSON(body)
}

func runRolesDeactivate(cmd *cobra.Command, args []string) error {
	if err := apiClient().Delete("/api/v1/roles/" + args[0]); err != nil {
		return err
	}
	fmt.Printf("Role %s deactivated\n", args[0])
	return nil
}

var grantCmd = &cobra.Command{
	Use:   "grant <role-id> <action>",
	Short: "Grant an action to a role",
	Long: `Grant an action to a role.

The action must exist in the catalog, e.g. sales_orders:view. A grant
only takes effect when the dealership module is enabled, the role gate
is open, and the action's prerequisites resolve through the same role.`,
	Args: cobra.ExactArgs(2),
	RunE: runGrant,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <role-id> <action>",
	Short: "Revoke an action from a role",
	Args:  cobra.ExactArgs(2),
	RunE:  runRevoke,
}

func runGrant(cmd *cobra.Command, args []string) error {
	roleID, action := args[0], args[1]
	path := fmt.Sprintf("/api/v1/roles/%s/grants", roleID)
	if _, err := apiClient().Post(path, map[string]string{"action": action}); err != nil {
		return err
	}
	fmt.Printf("Granted %s to role %s\n", action, roleID)
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	roleID, action := args[0], args[1]
	path := fmt.Sprintf("/api/v1/roles/%s/grants/%s", roleID, action)
	if err := apiClient().Delete(path); err != nil {
		return err
	}
	fmt.Printf("Revoked %s from role %s\n", action, roleID)
	return nil
}
