// Package flow drives the capture-to-tutorial pipeline: a fixed sequence of
// backend calls with fail-fast semantics. The first failing stage ends the
// run and its error is returned as-is; nothing is rolled back and no later
// stage executes.
package flow

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/telemetry"
	"github.com/opscinema/cinectl/internal/uistate"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageSession  Stage = "session"
	StageCapture  Stage = "capture"
	StageOcr      Stage = "ocr"
	StageSteps    Stage = "steps"
	StageTutorial Stage = "tutorial"
	StageValidate Stage = "validate"
	StageExport   Stage = "export"
	StageVerify   Stage = "verify"
	StageComplete Stage = "complete"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StageSession, StageCapture, StageOcr, StageSteps, StageTutorial,
	StageValidate, StageExport, StageVerify, StageComplete,
}

// Request configures one pipeline run.
type Request struct {
	SessionLabel string
	OutputDir    string

	// OnStage, when set, observes each stage as it begins.
	OnStage func(Stage)
}

// Result is the composite outcome of a successful run.
type Result struct {
	SessionID    string
	OutputPath   string
	BundleHash   string
	VerifyValid  bool
	VerifyIssues []string
}

// Runner executes pipeline runs against one backend and one state store.
type Runner struct {
	inv   rpc.Invoker
	store *uistate.Store
}

// NewRunner builds a Runner. The invoker is the only transport the run
// uses; test doubles substitute here.
func NewRunner(inv rpc.Invoker, store *uistate.Store) *Runner {
	return &Runner{inv: inv, store: store}
}

// Run executes the full pipeline. Stages run strictly in order; a stage
// never starts before the previous one resolved. On failure the returned
// error is the failing stage's error (or a locally synthesized export-gate
// error) and no later stage executes.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	tracer := telemetry.Tracer("")
	ctx, span := tracer.Start(ctx, "flow.run",
		trace.WithAttributes(attribute.String("session_label", req.SessionLabel)))
	defer span.End()

	result, err := r.run(ctx, tracer, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (r *Runner) run(ctx context.Context, tracer trace.Tracer, req Request) (*Result, error) {
	observe := func(stage Stage) {
		if req.OnStage != nil {
			req.OnStage(stage)
		}
	}

	stageCall := func(stage Stage, op string, args any, out any) error {
		ctx, span := tracer.Start(ctx, "flow.stage."+string(stage))
		defer span.End()
		err := r.inv.Invoke(ctx, op, args, out)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			r.store.SetLastError(apperr.CodeOf(err))
		}
		return err
	}

	observe(StageSession)
	var session rpc.Session
	if err := stageCall(StageSession, rpc.OpSessionCreate,
		rpc.SessionCreateArgs{Label: req.SessionLabel, Metadata: map[string]string{}},
		&session); err != nil {
		return nil, err
	}
	sessionID := session.SessionID
	r.store.SetActiveSession(sessionID)
	r.store.SetSessionHeadSeq(sessionID, session.HeadSeq)

	observe(StageCapture)
	var capture rpc.CaptureStatus
	if err := stageCall(StageCapture, rpc.OpCaptureStart,
		rpc.SessionIDArgs{SessionID: sessionID}, &capture); err != nil {
		return nil, err
	}

	observe(StageOcr)
	var ocrJob rpc.JobHandle
	if err := stageCall(StageOcr, rpc.OpOcrSchedule,
		rpc.OcrScheduleArgs{SessionID: sessionID}, &ocrJob); err != nil {
		return nil, err
	}

	observe(StageSteps)
	var stepsJob rpc.JobHandle
	if err := stageCall(StageSteps, rpc.OpStepsGenerateCandidates,
		rpc.SessionIDArgs{SessionID: sessionID}, &stepsJob); err != nil {
		return nil, err
	}

	observe(StageTutorial)
	var tutorialJob rpc.JobHandle
	if err := stageCall(StageTutorial, rpc.OpTutorialGenerate,
		rpc.SessionIDArgs{SessionID: sessionID}, &tutorialJob); err != nil {
		return nil, err
	}

	observe(StageValidate)
	var gate rpc.GateResult
	if err := stageCall(StageValidate, rpc.OpTutorialValidateExport,
		rpc.SessionIDArgs{SessionID: sessionID}, &gate); err != nil {
		return nil, err
	}
	// A false decision on a successful round trip is a gate rejection,
	// not a transport failure.
	if !gate.Allowed {
		return nil, &apperr.Error{
			Code:        apperr.CodeExportGateFailed,
			Message:     strings.Join(gate.Reasons, "; "),
			Recoverable: false,
			ActionHint:  "Fix steps or anchors before export",
		}
	}

	observe(StageExport)
	var exported rpc.ExportResult
	if err := stageCall(StageExport, rpc.OpTutorialExportPack,
		rpc.TutorialExportPackArgs{SessionID: sessionID, OutputDir: req.OutputDir},
		&exported); err != nil {
		return nil, err
	}

	observe(StageVerify)
	var verify rpc.VerifyResult
	if err := stageCall(StageVerify, rpc.OpExportVerifyBundle,
		rpc.ExportVerifyBundleArgs{BundlePath: exported.OutputPath}, &verify); err != nil {
		return nil, err
	}
	if !verify.Valid {
		return nil, &apperr.Error{
			Code:        apperr.CodeExportGateFailed,
			Message:     "Export verification failed",
			Details:     strings.Join(verify.Issues, "; "),
			Recoverable: true,
			ActionHint:  "Inspect proof ledger and fix policy issues",
		}
	}

	// Best-effort cleanup; its result is not part of the run's outcome.
	_ = r.inv.Invoke(ctx, rpc.OpCaptureStop, rpc.SessionIDArgs{SessionID: sessionID}, nil)

	r.store.SetLastError("")
	observe(StageComplete)
	return &Result{
		SessionID:    sessionID,
		OutputPath:   exported.OutputPath,
		BundleHash:   exported.BundleHash,
		VerifyValid:  verify.Valid,
		VerifyIssues: verify.Issues,
	}, nil
}
