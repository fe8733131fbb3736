package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var appendCmd = &cobra.Command{
	Use:   "append <json-value>",
	Short: "Append one entry to the log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any
		if err := json.Unmarshal([]byte(args[0]), &value); err != nil {
			return fmt.Errorf("entry must be valid JSON: %w", err)
		}
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)

		position, err := backend.Writer.WriteEntry(value)
		if err != nil {
			return err
		}
		fmt.Printf("appended at position %d\n", position)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
