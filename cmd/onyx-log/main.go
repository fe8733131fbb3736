// onyx-log is an operator CLI for the coordination-log backend: it can
// bootstrap a tenancy, append and tail log entries, advance the origin
// snapshot, garbage-collect entries, and inspect pulses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	onyx "github.com/mariusz-jachimowicz-83/onyx"
	"github.com/mariusz-jachimowicz-83/onyx/internal/config"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
)

var (
	configPath string
	tenancyID  string
	address    string
	verbose    bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "onyx-log",
	Short: "Operate the onyx coordination log",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&tenancyID, "tenancy", "", "tenancy id (overrides config)")
	rootCmd.PersistentFlags().StringVar(&address, "address", "", "coordination service connect string (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
}

// loadConfig merges the config file with the command-line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if tenancyID != "" {
		cfg.TenancyID = tenancyID
	}
	if address != "" {
		cfg.Address = address
	}
	return cfg, cfg.Validate()
}

func openBackend() (*onyx.Backend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return onyx.Open(rootCtx, cfg, map[string]any{})
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
