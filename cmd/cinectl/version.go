package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/rpc"
)

// version is overridden at build time with -ldflags.
var version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print client and daemon versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("cinectl %s\n", version)
		c, err := requireClient()
		if err != nil {
			fmt.Println("daemon: not reachable")
			return nil
		}
		var info rpc.BuildInfo
		if err := c.Invoke(cmd.Context(), rpc.OpAppGetBuildInfo, struct{}{}, &info); err != nil {
			return err
		}
		fmt.Printf("daemon %s %s (%s, built %s)\n", info.AppName, info.AppVersion, info.Commit, info.BuiltAt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
