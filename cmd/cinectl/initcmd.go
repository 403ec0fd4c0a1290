package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/config"
	"github.com/opscinema/cinectl/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write the client configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.Default()
		timeout := c.InvokeTimeout.String()
		useTCP := false

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Connect over TCP instead of the unix socket?").
					Value(&useTCP),
				huh.NewInput().
					Title("Daemon socket path").
					Value(&c.SocketPath),
				huh.NewInput().
					Title("Daemon TCP address (host:port, only used with TCP)").
					Value(&c.DaemonHost),
				huh.NewInput().
					Title("Auth token (only used with TCP)").
					Value(&c.Token),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Event stream base URL").
					Value(&c.EventsURL),
				huh.NewInput().
					Title("Bundle output directory").
					Value(&c.OutputDir),
				huh.NewInput().
					Title("Per-call timeout").
					Value(&timeout).
					Validate(func(s string) error {
						_, err := time.ParseDuration(s)
						return err
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Capture helper binary").
					Value(&c.CaptureHelper),
				huh.NewInput().
					Title("Recognition helper binary").
					Value(&c.RecognitionHelper),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !useTCP {
			c.DaemonHost = ""
		}
		c.InvokeTimeout, _ = time.ParseDuration(timeout)

		path := configPath
		if path == "" {
			path = config.Path()
		}
		if err := config.Save(c, path); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass(ui.IconPass), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
