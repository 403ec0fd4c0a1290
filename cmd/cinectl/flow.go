package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/flow"
	"github.com/opscinema/cinectl/internal/ui"
)

var (
	flowLabel     string
	flowOutputDir string
)

var flowCmd = &cobra.Command{
	Use:   "flow",
	Short: "Run the capture-to-tutorial pipeline",
}

var flowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every pipeline stage and export a verified bundle",
	Long: `Runs the full pipeline: create a session, start capture, schedule
recognition and step generation, generate the tutorial, then validate,
export, and verify the bundle. The first failing stage aborts the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		outputDir := flowOutputDir
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}

		runner := flow.NewRunner(c, store)
		result, err := runner.Run(cmd.Context(), flow.Request{
			SessionLabel: flowLabel,
			OutputDir:    outputDir,
			OnStage: func(stage flow.Stage) {
				if !jsonOutput {
					fmt.Printf("%s %s\n", ui.RenderAccent("▸"), stage)
				}
			},
		})
		if err != nil {
			printFlowError(err)
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		fmt.Printf("%s Exported %s\n", ui.RenderPass(ui.IconPass), result.OutputPath)
		fmt.Printf("  session: %s\n", result.SessionID)
		fmt.Printf("  bundle:  %s\n", result.BundleHash)
		return nil
	},
}

// printFlowError renders the structured failure before the generic error
// line; the action hint is the part users actually need.
func printFlowError(err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", ui.RenderFail(ui.IconFail), appErr.Code, appErr.Message)
	if appErr.Details != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", ui.RenderMuted(appErr.Details))
	}
	if appErr.ActionHint != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", ui.RenderWarn(appErr.ActionHint))
	}
}

func init() {
	flowRunCmd.Flags().StringVar(&flowLabel, "label", "", "Label for the new session")
	flowRunCmd.Flags().StringVar(&flowOutputDir, "output-dir", "", "Bundle output directory (default from config)")
	flowCmd.AddCommand(flowRunCmd)
	rootCmd.AddCommand(flowCmd)
}
