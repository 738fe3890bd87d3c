package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign <dealership-id> <user-id> <role-id>",
	Short: "Assign a role to a user within a dealership",
	Args:  cobra.ExactArgs(3),
	RunE:  runAssign,
}

var unassignCmd = &cobra.Command{
	Use:   "unassign <dealership-id> <user-id> <role-id>",
	Short: "Remove a role from a user within a dealership",
	Args:  cobra.ExactArgs(3),
	RunE:  runUnassign,
}

func runAssign(cmd *cobra.Command, args []string) error {
	dealershipID, userID, roleID := args[0], args[1], args[2]

	path := fmt.Sprintf("/api/v1/dealerships/%s/users/%s/roles", dealershipID, userID)
	if _, err := apiClient().Post(path, map[string]string{"role_id": roleID}); err != nil {
		return err
	}
	fmt.Printf("Assigned role %s to user %s in dealership %s\n", roleID, userID, dealershipID)
	return nil
}

func runUnassign(cmd *cobra.Command, args []string) error {
	dealershipID, userID, roleID := args[0], args[1], args[2]

	path := fmt.Sprintf("/api/v1/dealerships/%s/users/%s/roles/%s", dealershipID, userID, roleID)
	if err := apiClient().Delete(path); err != nil {
		return err
	}
	fmt.Printf("Removed role %s from user %s in dealership %s\n", roleID, userID, dealershipID)
	return nil
}
