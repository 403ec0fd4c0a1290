package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/helpers"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/ui"
)

var (
	captureSessionID string
	snapOutput       string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Control the capture pipeline",
}

var captureStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start capturing into a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var status rpc.CaptureStatus
		if err := c.Invoke(cmd.Context(), rpc.OpCaptureStart,
			rpc.SessionIDArgs{SessionID: captureSessionID}, &status); err != nil {
			return err
		}
		store.IngestCaptureStatus(rpc.CaptureStatusEvent{State: status.State, SessionID: status.SessionID})
		fmt.Printf("%s Capturing into %s\n", ui.RenderPass(ui.IconPass), status.SessionID)
		return nil
	},
}

var captureStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop capturing",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var status rpc.CaptureStatus
		if err := c.Invoke(cmd.Context(), rpc.OpCaptureStop,
			rpc.SessionIDArgs{SessionID: captureSessionID}, &status); err != nil {
			return err
		}
		store.IngestCaptureStatus(rpc.CaptureStatusEvent{State: status.State, SessionID: status.SessionID})
		fmt.Printf("%s Capture stopped\n", ui.RenderPass(ui.IconPass))
		return nil
	},
}

var captureStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show capture state",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var status rpc.CaptureStatus
		if err := c.Invoke(cmd.Context(), rpc.OpCaptureGetStatus,
			rpc.CaptureStatusArgs{SessionID: captureSessionID}, &status); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(status)
		}
		fmt.Printf("state: %s\n", status.State)
		if status.SessionID != "" {
			fmt.Printf("session: %s\n", status.SessionID)
		}
		if status.StartedAt != "" {
			fmt.Printf("since: %s\n", status.StartedAt)
		}
		return nil
	},
}

// snap runs the local capture helper directly, outside any session. Useful
// for checking permissions and helper wiring before recording.
var captureSnapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Capture a single frame with the local helper",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := snapOutput
		if out == "" {
			out = filepath.Join(cfg.OutputDir, fmt.Sprintf("snap-%d.png", time.Now().Unix()))
		}
		helper := helpers.CaptureHelper{Binary: cfg.CaptureHelper}
		if err := helper.Snap(cmd.Context(), out); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass(ui.IconPass), out)
		return nil
	},
}

var captureRecognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Run the local text-recognition helper over an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		helper := helpers.RecognitionHelper{Binary: cfg.RecognitionHelper}
		blocks, err := helper.Recognize(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(blocks)
		}
		for _, block := range blocks {
			fmt.Printf("%.2f  %s\n", block.Confidence, block.Text)
		}
		return nil
	},
}

func init() {
	captureCmd.PersistentFlags().StringVar(&captureSessionID, "session", "", "Session ID")
	captureSnapCmd.Flags().StringVar(&snapOutput, "output", "", "Output PNG path")
	captureCmd.AddCommand(captureStartCmd, captureStopCmd, captureStatusCmd, captureSnapCmd, captureRecognizeCmd)
	rootCmd.AddCommand(captureCmd)
}
