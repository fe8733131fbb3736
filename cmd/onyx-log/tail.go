package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	onyx "github.com/mariusz-jachimowicz-83/onyx"
)

var tailCount int

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the log and print entries as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close(rootCtx)

		tailer := backend.NewTailer()
		defer tailer.Close()

		out := backend.NewEntryChannel()
		if _, err := tailer.Subscribe(out); err != nil {
			return err
		}

		emitted := 0
		for {
			select {
			case <-rootCtx.Done():
				return nil
			case entry := <-out:
				if entry.Err != nil {
					return entry.Err
				}
				printEntry(entry)
				emitted++
				if tailCount > 0 && emitted >= tailCount {
					return nil
				}
			}
		}
	},
}

func printEntry(entry onyx.Entry) {
	if replica, ok := entry.Value.(onyx.SetReplica); ok {
		fmt.Printf("set-replica %v\n", replica.Replica)
		return
	}
	body, err := json.Marshal(entry.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "entry %d: %v\n", entry.MessageID, err)
		return
	}
	fmt.Printf("%d %s %s\n", entry.MessageID, entry.CreatedAt.Format("15:04:05.000"), body)
}

func init() {
	tailCmd.Flags().IntVarP(&tailCount, "count", "n", 0, "exit after printing this many entries (0 = forever)")
	rootCmd.AddCommand(tailCmd)
}
