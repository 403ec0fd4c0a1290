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
	jobsSessionID string
	jobsStatus    string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and cancel background jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var result rpc.JobsListResult
		if err := c.Invoke(cmd.Context(), rpc.OpJobsList, rpc.JobsListArgs{
			SessionID: jobsSessionID,
			Status:    rpc.JobStatus(jobsStatus),
		}, &result); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		for _, job := range result.Jobs {
			fmt.Printf("%s  %-26s %s\n", job.JobID, job.JobType, renderJobStatus(job.Status))
			if job.Progress != nil {
				fmt.Printf("    %s %d%% (%d/%d)\n", job.Progress.Stage, job.Progress.Pct,
					job.Progress.Counters.Done, job.Progress.Counters.Total)
			}
		}
		return nil
	},
}

func renderJobStatus(status rpc.JobStatus) string {
	switch status {
	case rpc.JobSucceeded:
		return ui.RenderPass(string(status))
	case rpc.JobFailed:
		return ui.RenderFail(string(status))
	case rpc.JobCancelled:
		return ui.RenderMuted(string(status))
	default:
		return ui.RenderAccent(string(status))
	}
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var job rpc.JobDetail
		if err := c.Invoke(cmd.Context(), rpc.OpJobsGet,
			rpc.JobIDArgs{JobID: args[0]}, &job); err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(job)
		}
		fmt.Printf("%s %s %s\n", job.JobID, job.JobType, renderJobStatus(job.Status))
		fmt.Printf("  created: %s\n", job.CreatedAt)
		if job.StartedAt != "" {
			fmt.Printf("  started: %s\n", job.StartedAt)
		}
		if job.EndedAt != "" {
			fmt.Printf("  ended:   %s\n", job.EndedAt)
		}
		if job.Error != nil {
			fmt.Printf("  %s [%s] %s\n", ui.RenderFail(ui.IconFail), job.Error.Code, job.Error.Message)
		}
		return nil
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cancellation of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireClient()
		if err != nil {
			return err
		}
		var result rpc.JobsCancelResult
		if err := c.Invoke(cmd.Context(), rpc.OpJobsCancel,
			rpc.JobIDArgs{JobID: args[0]}, &result); err != nil {
			return err
		}
		if !result.Accepted {
			fmt.Printf("%s Job already terminal, nothing to cancel\n", ui.RenderWarn(ui.IconWarn))
			return nil
		}
		fmt.Printf("%s Cancellation requested\n", ui.RenderPass(ui.IconPass))
		return nil
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsSessionID, "session", "", "Filter by session ID")
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "Filter by status (QUEUED, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}
