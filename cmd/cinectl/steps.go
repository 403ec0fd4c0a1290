package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/edit"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/ui"
)

var (
	stepsSessionID string
	stepsBaseSeq   int64
	stepsNewIndex  int
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List and edit generated tutorial steps",
}

var stepsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a session's steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var result rpc.StepsListResult
		if err := c.Invoke(cmd.Context(), rpc.OpStepsList,
			rpc.SessionIDArgs{SessionID: stepsSessionID}, &result); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		fmt.Printf("%s (head_seq %d)\n", ui.RenderCategory("Steps"), result.HeadSeq)
		for _, step := range result.Steps {
			risk := ""
			if len(step.RiskTags) > 0 {
				risk = " " + ui.RenderWarn("["+strings.Join(step.RiskTags, ",")+"]")
			}
			fmt.Printf("%3d. %s  %s%s\n", step.OrderIndex+1, ui.RenderMuted(step.StepID), step.Title, risk)
			fmt.Print(ui.RenderMarkdown(stepBodyMarkdown(step.Body)))
		}
		return nil
	},
}

// stepBodyMarkdown flattens a step body for terminal display, marking
// blocks a human has touched.
func stepBodyMarkdown(body rpc.StructuredText) string {
	var b strings.Builder
	for _, block := range body.Blocks {
		if block.Provenance == "human" {
			b.WriteString("> " + block.Text + "\n")
			continue
		}
		b.WriteString(block.Text + "\n")
	}
	return b.String()
}

var stepsRetitleCmd = &cobra.Command{
	Use:   "retitle <step-id> <title>",
	Short: "Change a step's title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStepEdit(cmd, rpc.UpdateTitleOp(args[0], args[1]))
	},
}

var stepsDeleteCmd = &cobra.Command{
	Use:   "delete <step-id>",
	Short: "Delete a step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStepEdit(cmd, rpc.DeleteStepOp(args[0]))
	},
}

var stepsMoveCmd = &cobra.Command{
	Use:   "move <step-id>",
	Short: "Move a step to a new position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStepEdit(cmd, rpc.ReorderStepOp(args[0], stepsNewIndex))
	},
}

// runStepEdit applies one edit with a single conflict retry. When no
// --base-seq is given it uses the store's cached head_seq for the session,
// falling back to a fresh steps_list.
func runStepEdit(cmd *cobra.Command, op rpc.StepEditOp) error {
	c, err := requireClient()
	if err != nil {
		return err
	}
	baseSeq := stepsBaseSeq
	if !cmd.Flags().Changed("base-seq") {
		state := store.GetState()
		if seq, ok := state.SessionHeadSeq[stepsSessionID]; ok {
			baseSeq = seq
		} else {
			var listed rpc.StepsListResult
			if err := c.Invoke(cmd.Context(), rpc.OpStepsList,
				rpc.SessionIDArgs{SessionID: stepsSessionID}, &listed); err != nil {
				return err
			}
			baseSeq = listed.HeadSeq
		}
	}

	resolver := edit.NewResolver(c, store)
	result, err := resolver.ApplyWithConflictRetry(cmd.Context(), stepsSessionID, baseSeq, op)
	if err != nil {
		return err
	}
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	fmt.Printf("%s Applied (head_seq %d)\n", ui.RenderPass(ui.IconPass), result.HeadSeq)
	return nil
}

func init() {
	stepsCmd.PersistentFlags().StringVar(&stepsSessionID, "session", "", "Session ID")
	_ = stepsCmd.MarkPersistentFlagRequired("session")
	for _, c := range []*cobra.Command{stepsRetitleCmd, stepsDeleteCmd, stepsMoveCmd} {
		c.Flags().Int64Var(&stepsBaseSeq, "base-seq", 0, "Base head_seq for the edit (default: cached or fetched)")
	}
	stepsMoveCmd.Flags().IntVar(&stepsNewIndex, "to", 0, "Target position (0-based)")
	stepsCmd.AddCommand(stepsListCmd, stepsRetitleCmd, stepsDeleteCmd, stepsMoveCmd)
	rootCmd.AddCommand(stepsCmd)
}
