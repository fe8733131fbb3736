package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the namespace skeleton for a tenancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)
		fmt.Println("namespace ready")
		return nil
	},
}

var gcCmd = &cobra.Command{
	Use:   "gc <position>",
	Short: "Delete the log entry at a position",
	Long: `Delete the log entry at a position.

The origin snapshot must already cover the position, or late subscribers
will lose the entry. Advance it first with 'onyx-log origin'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("position must be an integer: %w", err)
		}
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)
		return backend.GC.DeleteEntry(position)
	},
}

var originCmd = &cobra.Command{
	Use:   "origin [<message-id> <json-replica>]",
	Short: "Show or advance the origin snapshot",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)

		if len(args) == 2 {
			messageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("message-id must be an integer: %w", err)
			}
			var replica any
			if err := json.Unmarshal([]byte(args[1]), &replica); err != nil {
				return fmt.Errorf("replica must be valid JSON: %w", err)
			}
			if err := backend.Origin.Update(replica, messageID); err != nil {
				return err
			}
		}

		snap, err := backend.Origin.Read()
		if err != nil {
			return err
		}
		body, _ := json.Marshal(snap.Replica)
		fmt.Printf("message-id %d replica %s\n", snap.MessageID, body)
		return nil
	},
}

var pulseCmd = &cobra.Command{
	Use:   "pulse <peer-id>",
	Short: "Check whether a peer's pulse node is present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)

		alive, err := backend.Pulses.Exists(args[0])
		if err != nil {
			return err
		}
		if alive {
			fmt.Printf("%s is alive\n", args[0])
		} else {
			fmt.Printf("%s has no pulse\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd, gcCmd, originCmd, pulseCmd)
}
