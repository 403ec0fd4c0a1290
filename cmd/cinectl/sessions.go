package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/ui"
)

var (
	sessionsLimit int
	sessionsLabel string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage recording sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var sessions []rpc.Session
		if err := c.Invoke(cmd.Context(), rpc.OpSessionList,
			rpc.SessionListArgs{Limit: sessionsLimit}, &sessions); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(sessions)
		}
		for _, s := range sessions {
			state := ui.RenderPass("open")
			if s.ClosedAt != "" {
				state = ui.RenderMuted("closed")
			}
			fmt.Printf("%s  %-30s %s  seq %d\n", s.SessionID, s.Label, state, s.HeadSeq)
		}
		return nil
	},
}

var sessionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var session rpc.Session
		if err := c.Invoke(cmd.Context(), rpc.OpSessionCreate,
			rpc.SessionCreateArgs{Label: sessionsLabel, Metadata: map[string]string{}},
			&session); err != nil {
			return err
		}
		store.SetActiveSession(session.SessionID)
		store.SetSessionHeadSeq(session.SessionID, session.HeadSeq)
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(session)
		}
		fmt.Printf("%s Created %s\n", ui.RenderPass(ui.IconPass), session.SessionID)
		return nil
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var detail rpc.SessionDetail
		if err := c.Invoke(cmd.Context(), rpc.OpSessionGet,
			rpc.SessionIDArgs{SessionID: args[0]}, &detail); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(detail)
		}
		s := detail.Summary
		fmt.Printf("%s\n", ui.RenderCategory(s.Label))
		fmt.Printf("  id:       %s\n", s.SessionID)
		fmt.Printf("  created:  %s\n", s.CreatedAt)
		if s.ClosedAt != "" {
			fmt.Printf("  closed:   %s\n", s.ClosedAt)
		}
		fmt.Printf("  head_seq: %d (%s)\n", s.HeadSeq, s.HeadHash)
		for k, v := range detail.Metadata {
			fmt.Printf("  %s: %s\n", k, v)
		}
		return nil
	},
}

var sessionsCloseCmd = &cobra.Command{
	Use:   "close <session-id>",
	Short: "Close a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		if err := c.Invoke(cmd.Context(), rpc.OpSessionClose,
			rpc.SessionIDArgs{SessionID: args[0]}, nil); err != nil {
			return err
		}
		fmt.Printf("%s Closed %s\n", ui.RenderPass(ui.IconPass), args[0])
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	sessionsCreateCmd.Flags().StringVar(&sessionsLabel, "label", "", "Session label")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsCreateCmd, sessionsGetCmd, sessionsCloseCmd)
	rootCmd.AddCommand(sessionsCmd)
}
