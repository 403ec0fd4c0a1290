// cinectl is the command-line client for the opscinema backend daemon. It
// drives the capture-to-tutorial pipeline, edits generated steps under
// optimistic concurrency, and watches the daemon's push event channels.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/config"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/telemetry"
	"github.com/opscinema/cinectl/internal/uistate"
)

var (
	cfg   *config.Config
	store = uistate.New()

	// client is dialed on first use; commands that never talk to the
	// daemon (init, version) leave it nil.
	client *rpc.Client

	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "cinectl",
	Short: "Client for the opscinema capture-to-tutorial backend",
	Long: `cinectl drives the opscinema backend daemon: recording sessions,
scheduling recognition and generation jobs, exporting verified tutorial
bundles, and editing generated steps.

Configuration lives in ~/.opscinema/config.yaml (override with --config or
OPSC_CONFIG_DIR). Set OPSC_DEBUG_RPC=1 to trace daemon traffic.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		rpc.ClientVersion = version
		return telemetry.Init(cmd.Context(), "cinectl", version)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			_ = client.Close()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")
}

// requireClient dials the daemon, preferring TCP when daemon_host is set.
func requireClient() (*rpc.Client, error) {
	if client != nil {
		return client, nil
	}
	var err error
	if cfg.DaemonHost != "" {
		client, err = rpc.DialTCP(cfg.DaemonHost, cfg.Token, 2*time.Second)
	} else {
		client, err = rpc.Dial(cfg.SocketPath, 2*time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("%w\nHint: is the opscinema daemon running?", err)
	}
	client.SetTimeout(cfg.InvokeTimeout)
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
