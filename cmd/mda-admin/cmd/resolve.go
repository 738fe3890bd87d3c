package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <dealership-id> <user-id>",
	Short: "Resolve a user's effective permission set",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the permission catalog",
	RunE:  runCatalog,
}

var cacheCmd = &cobra.Command{
	Use:   "cache-flush",
	Short: "Drop every cached effective permission set",
	RunE:  runCacheFlush,
}

func runResolve(cmd *cobra.Command, args []string) error {
	dealershipID, userID := args[0], args[1]

	path := fmt.Sprintf("/api/v1/dealerships/%s/users/%s/permissions", dealershipID, userID)
	body, err := apiClient().Get(path)
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(body)
	}

	var resp struct {
		DealershipID string   `json:"dealership_id"`
		UserID       string   `json:"user_id"`
		Actions      []string `json:"actions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}

	fmt.Printf("User %s in dealership %s: %d actions\n", resp.UserID, resp.DealershipID, len(resp.Actions))
	for _, a := range resp.Actions {
		fmt.Println("  " + a)
	}
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	body, err := apiClient().Get("/api/v1/catalog")
	if err != nil {
		return err
	}

	if flagOutput == "json" {
		return printJSON(body)
	}

	var resp struct {
		Catalog []struct {
			Module        string   `json:"module"`
			Action        string   `json:"action"`
			Prerequisites []string `json:"prerequisites"`
		} `json:"catalog"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "MODULE\tACTION\tPREREQUISITES")
	for _, e := range resp.Catalog {
		prereqs := ""
		for i, p := range e.Prerequisites {
			if i > 0 {
				prereqs += ", "
			}
			prereqs += p
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Module, e.Action, prereqs)
	}
	return w.Flush()
}

func runCacheFlush(cmd *cobra.Command, args []string) error {
	if _, err := apiClient().Post("/api/v1/cache/flush", nil); err != nil {
		return err
	}
	fmt.Println("Cache flushed")
	return nil
}
