package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opscinema/cinectl/internal/routes"
	"github.com/opscinema/cinectl/internal/ui"
)

var viewSessionID string

var viewCmd = &cobra.Command{
	Use:   "view <route>",
	Short: "Render one view route",
	Long: `Loads and renders one of the client's view routes:

  permissions, capture, evidence, steps, anchors, slicer_studio,
  proof_ledger, model_dock, agent_plant

Session-scoped routes render an empty view when no --session is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := routes.Route(args[0])
		if !route.Valid() {
			return fmt.Errorf("unknown route %q (valid: %s)", args[0], routeNames())
		}
		c, err := requireClient()
		if err != nil {
			return err
		}
		if viewSessionID != "" {
			store.SetActiveSession(viewSessionID)
		}

		loader := routes.NewLoader(c, store)
		view, err := loader.Load(cmd.Context(), route)
		if err != nil {
			return err
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(view)
		}
		renderView(view)
		return nil
	},
}

func routeNames() string {
	names := make([]string, len(routes.All))
	for i, r := range routes.All {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func renderView(view any) {
	switch v := view.(type) {
	case *routes.PermissionsView:
		fmt.Println(ui.RenderCategory("Permissions"))
		renderGrant("screen recording", v.Permissions.ScreenRecording)
		renderGrant("accessibility", v.Permissions.Accessibility)
		renderGrant("full disk access", v.Permissions.FullDiskAccess)
		fmt.Println(ui.RenderCategory("Settings"))
		fmt.Printf("  offline mode: %v\n", v.Settings.OfflineMode)
		fmt.Printf("  input capture: %v\n", v.Settings.AllowInputCapture)
		fmt.Printf("  window metadata: %v\n", v.Settings.AllowWindowMetadata)
	case *routes.CaptureView:
		fmt.Println(ui.RenderCategory("Capture"))
		fmt.Printf("  state: %s\n", v.Status.State)
		if v.Status.SessionID != "" {
			fmt.Printf("  session: %s\n", v.Status.SessionID)
		}
		fmt.Printf("  keyframe interval: %dms\n", v.Config.KeyframeIntervalMs)
	case *routes.EvidenceView:
		fmt.Println(ui.RenderCategory("Evidence coverage"))
		if v.Coverage.Pass {
			fmt.Printf("  %s all steps and generated blocks covered\n", ui.RenderPass(ui.IconPass))
			return
		}
		for _, id := range v.Coverage.MissingStepIDs {
			fmt.Printf("  %s step %s has no evidence\n", ui.RenderFail(ui.IconFail), id)
		}
		for _, id := range v.Coverage.MissingGeneratedBlockIDs {
			fmt.Printf("  %s generated block %s has no evidence\n", ui.RenderFail(ui.IconFail), id)
		}
	case *routes.StepsView:
		fmt.Printf("%s (head_seq %d)\n", ui.RenderCategory("Steps"), v.HeadSeq)
		for _, step := range v.Steps {
			fmt.Printf("%3d. %s\n", step.OrderIndex+1, step.Title)
		}
	case *routes.AnchorsView:
		fmt.Println(ui.RenderCategory("Anchors"))
		for stepID, anchors := range v.StepAnchors {
			fmt.Printf("  %s\n", stepID)
			for _, a := range anchors {
				mark := ui.RenderPass(ui.IconPass)
				if a.Degraded {
					mark = ui.RenderWarn(ui.IconWarn)
				}
				fmt.Printf("    %s %s %.2f %s\n", mark, a.Kind, a.Confidence, ui.RenderMuted(a.TargetSignature))
			}
		}
	case *routes.SlicerStudioView:
		fmt.Println(ui.RenderCategory("Exports"))
		for _, exp := range v.Exports {
			fmt.Printf("  %s  %s\n", exp.ExportID, exp.OutputPath)
		}
	case *routes.ProofLedgerView:
		fmt.Println(ui.RenderCategory("Proof ledger"))
		fmt.Printf("  %d steps\n", len(v.Steps))
		for _, w := range v.Warnings {
			fmt.Printf("  %s %s: %s\n", ui.RenderWarn(ui.IconWarn), w.Code, w.Message)
		}
	case *routes.ModelDockView:
		fmt.Println(ui.RenderCategory("Models"))
		for _, m := range v.Models {
			fmt.Printf("  %s  %s/%s\n", m.ModelID, m.Provider, m.Label)
		}
		if v.Roles.TutorialGeneration != "" {
			fmt.Printf("  tutorial generation: %s\n", v.Roles.TutorialGeneration)
		}
	case *routes.AgentPlantView:
		fmt.Println(ui.RenderCategory("Agent pipelines"))
		for _, p := range v.Pipelines {
			fmt.Printf("  %s\n", p)
		}
		for _, job := range v.Jobs {
			fmt.Printf("  %s %s %s\n", job.JobID, job.JobType, renderJobStatus(job.Status))
		}
	}
}

func renderGrant(name string, granted bool) {
	if granted {
		fmt.Printf("  %s %s\n", ui.RenderPass(ui.IconPass), name)
		return
	}
	fmt.Printf("  %s %s\n", ui.RenderFail(ui.IconFail), name)
}

func init() {
	viewCmd.Flags().StringVar(&viewSessionID, "session", "", "Session the view is scoped to")
	rootCmd.AddCommand(viewCmd)
}
