package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/ui"
)

var exportsSessionID string

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List and verify exported bundles",
}

var exportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var result rpc.ExportsListResult
		if err := c.Invoke(cmd.Context(), rpc.OpExportsList,
			rpc.ExportsListArgs{SessionID: exportsSessionID}, &result); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		for _, exp := range result.Exports {
			fmt.Printf("%s  %s\n", exp.ExportID, exp.OutputPath)
			fmt.Printf("  hash: %s\n", ui.RenderMuted(exp.BundleHash))
			for _, w := range exp.Warnings {
				fmt.Printf("  %s %s: %s\n", ui.RenderWarn(ui.IconWarn), w.Code, w.Message)
			}
		}
		return nil
	},
}

var exportsVerifyCmd = &cobra.Command{
	Use:   "verify <bundle-path>",
	Short: "Re-verify a packed bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var result rpc.VerifyResult
		if err := c.Invoke(cmd.Context(), rpc.OpExportVerifyBundle,
			rpc.ExportVerifyBundleArgs{BundlePath: args[0]}, &result); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		if result.Valid {
			fmt.Printf("%s Bundle valid\n", ui.RenderPass(ui.IconPass))
			return nil
		}
		fmt.Printf("%s Bundle invalid\n", ui.RenderFail(ui.IconFail))
		for _, issue := range result.Issues {
			fmt.Printf("  %s\n", issue)
		}
		os.Exit(1)
		return nil
	},
}

func init() {
	exportsListCmd.Flags().StringVar(&exportsSessionID, "session", "", "Filter by session ID")
	exportsCmd.AddCommand(exportsListCmd, exportsVerifyCmd)
	rootCmd.AddCommand(exportsCmd)
}
