package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

// printJSON pretty-prints raw response bytes.
func printJSON(body []byte) error {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// newTable returns a tab writer for aligned table output.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
