// Package routes maps the closed set of view routes to their loaders.
// Route dispatch is a fixed enumeration, exhaustively switched; adding a
// route is an addition here, not a runtime lookup.
package routes

import (
	"context"
	"fmt"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/uistate"
)

// Route identifies one view of the client.
type Route string

const (
	RoutePermissions  Route = "permissions"
	RouteCapture      Route = "capture"
	RouteEvidence     Route = "evidence"
	RouteSteps        Route = "steps"
	RouteAnchors      Route = "anchors"
	RouteSlicerStudio Route = "slicer_studio"
	RouteProofLedger  Route = "proof_ledger"
	RouteModelDock    Route = "model_dock"
	RouteAgentPlant   Route = "agent_plant"
)

// All lists every route in display order.
var All = []Route{
	RoutePermissions, RouteCapture, RouteEvidence, RouteSteps, RouteAnchors,
	RouteSlicerStudio, RouteProofLedger, RouteModelDock, RouteAgentPlant,
}

// Valid reports whether r names a known route.
func (r Route) Valid() bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// View models, one per route. Routes scoped to a session return their zero
// view when no session is active rather than failing.

type PermissionsView struct {
	Permissions rpc.PermissionsStatus
	Settings    rpc.Settings
}

type CaptureView struct {
	Status rpc.CaptureStatus
	Config rpc.CaptureConfig
}

type EvidenceView struct {
	Coverage rpc.EvidenceCoverageResult
}

type StepsView struct {
	Steps   []rpc.Step
	HeadSeq int64
}

type AnchorsView struct {
	StepAnchors map[string][]rpc.AnchorCandidate
}

type SlicerStudioView struct {
	Exports []rpc.ExportResult
}

type ProofLedgerView struct {
	Steps    []rpc.Step
	Warnings []rpc.ExportWarning
}

type ModelDockView struct {
	Models []rpc.Model
	Roles  rpc.ModelRoles
}

type AgentPlantView struct {
	Pipelines []string
	Jobs      []rpc.JobDetail
}

// Loader loads route views through one backend and one state store.
type Loader struct {
	inv   rpc.Invoker
	store *uistate.Store
}

// NewLoader builds a Loader.
func NewLoader(inv rpc.Invoker, store *uistate.Store) *Loader {
	return &Loader{inv: inv, store: store}
}

// Load records the route as active and returns its view model. The returned
// value's concrete type is the view struct for the route.
func (l *Loader) Load(ctx context.Context, route Route) (any, error) {
	l.store.SetActiveRoute(string(route))
	sessionID := l.store.GetState().ActiveSessionID

	switch route {
	case RoutePermissions:
		return l.loadPermissions(ctx)
	case RouteCapture:
		return l.loadCapture(ctx, sessionID)
	case RouteEvidence:
		return l.loadEvidence(ctx, sessionID)
	case RouteSteps:
		return l.loadSteps(ctx, sessionID)
	case RouteAnchors:
		return l.loadAnchors(ctx, sessionID)
	case RouteSlicerStudio:
		return l.loadSlicerStudio(ctx, sessionID)
	case RouteProofLedger:
		return l.loadProofLedger(ctx, sessionID)
	case RouteModelDock:
		return l.loadModelDock(ctx)
	case RouteAgentPlant:
		return l.loadAgentPlant(ctx, sessionID)
	default:
		return nil, fmt.Errorf("unknown route %q", route)
	}
}

func (l *Loader) loadPermissions(ctx context.Context) (*PermissionsView, error) {
	var view PermissionsView
	if err := l.inv.Invoke(ctx, rpc.OpAppGetPermissionsStatus, struct{}{}, &view.Permissions); err != nil {
		return nil, err
	}
	if err := l.inv.Invoke(ctx, rpc.OpSettingsGet, struct{}{}, &view.Settings); err != nil {
		return nil, err
	}
	return &view, nil
}

func (l *Loader) loadCapture(ctx context.Context, sessionID string) (*CaptureView, error) {
	var view CaptureView
	if err := l.inv.Invoke(ctx, rpc.OpCaptureGetStatus,
		rpc.CaptureStatusArgs{SessionID: sessionID}, &view.Status); err != nil {
		return nil, err
	}
	if err := l.inv.Invoke(ctx, rpc.OpCaptureGetConfig, struct{}{}, &view.Config); err != nil {
		return nil, err
	}
	return &view, nil
}

func (l *Loader) loadEvidence(ctx context.Context, sessionID string) (*EvidenceView, error) {
	if sessionID == "" {
		return &EvidenceView{}, nil
	}
	var view EvidenceView
	if err := l.inv.Invoke(ctx, rpc.OpEvidenceGetCoverage,
		rpc.SessionIDArgs{SessionID: sessionID}, &view.Coverage); err != nil {
		return nil, err
	}
	return &view, nil
}

func (l *Loader) loadSteps(ctx context.Context, sessionID string) (*StepsView, error) {
	if sessionID == "" {
		return &StepsView{}, nil
	}
	var list rpc.StepsListResult
	if err := l.inv.Invoke(ctx, rpc.OpStepsList,
		rpc.SessionIDArgs{SessionID: sessionID}, &list); err != nil {
		return nil, err
	}
	l.store.SetSessionHeadSeq(sessionID, list.HeadSeq)
	return &StepsView{Steps: list.Steps, HeadSeq: list.HeadSeq}, nil
}

func (l *Loader) loadAnchors(ctx context.Context, sessionID string) (*AnchorsView, error) {
	view := &AnchorsView{StepAnchors: make(map[string][]rpc.AnchorCandidate)}
	if sessionID == "" {
		return view, nil
	}
	var list rpc.StepsListResult
	if err := l.inv.Invoke(ctx, rpc.OpStepsList,
		rpc.SessionIDArgs{SessionID: sessionID}, &list); err != nil {
		return nil, err
	}
	for _, step := range list.Steps {
		var anchors rpc.AnchorsListResult
		if err := l.inv.Invoke(ctx, rpc.OpAnchorsListForStep,
			rpc.StepRefArgs{SessionID: sessionID, StepID: step.StepID}, &anchors); err != nil {
			return nil, err
		}
		view.StepAnchors[step.StepID] = anchors.Anchors
	}
	return view, nil
}

func (l *Loader) loadSlicerStudio(ctx context.Context, sessionID string) (*SlicerStudioView, error) {
	var list rpc.ExportsListResult
	if err := l.inv.Invoke(ctx, rpc.OpExportsList,
		rpc.ExportsListArgs{SessionID: sessionID}, &list); err != nil {
		return nil, err
	}
	return &SlicerStudioView{Exports: list.Exports}, nil
}

func (l *Loader) loadProofLedger(ctx context.Context, sessionID string) (*ProofLedgerView, error) {
	if sessionID == "" {
		return &ProofLedgerView{}, nil
	}
	var proof rpc.ProofViewResult
	if err := l.inv.Invoke(ctx, rpc.OpProofGetView,
		rpc.SessionIDArgs{SessionID: sessionID}, &proof); err != nil {
		return nil, err
	}
	return &ProofLedgerView{Steps: proof.Steps, Warnings: proof.Warnings}, nil
}

func (l *Loader) loadModelDock(ctx context.Context) (*ModelDockView, error) {
	var view ModelDockView
	var models rpc.ModelsListResult
	if err := l.inv.Invoke(ctx, rpc.OpModelsList,
		rpc.ModelsListArgs{IncludeUnhealthy: true}, &models); err != nil {
		return nil, err
	}
	view.Models = models.Models
	if err := l.inv.Invoke(ctx, rpc.OpModelRolesGet, struct{}{}, &view.Roles); err != nil {
		return nil, err
	}
	return &view, nil
}

func (l *Loader) loadAgentPlant(ctx context.Context, sessionID string) (*AgentPlantView, error) {
	var view AgentPlantView
	var pipelines rpc.AgentPipelinesListResult
	if err := l.inv.Invoke(ctx, rpc.OpAgentPipelinesList, struct{}{}, &pipelines); err != nil {
		return nil, err
	}
	view.Pipelines = pipelines.Pipelines
	var jobs rpc.JobsListResult
	if err := l.inv.Invoke(ctx, rpc.OpJobsList,
		rpc.JobsListArgs{SessionID: sessionID}, &jobs); err != nil {
		return nil, err
	}
	view.Jobs = jobs.Jobs
	return &view, nil
}
