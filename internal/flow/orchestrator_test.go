package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/testutil"
	"github.com/opscinema/cinectl/internal/uistate"
)

// happyInvoker scripts every stage of a clean run.
func happyInvoker() *testutil.FakeInvoker {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpSessionCreate, rpc.Session{SessionID: "s-1", HeadSeq: 1})
	inv.Respond(rpc.OpCaptureStart, rpc.CaptureStatus{State: rpc.CaptureCapturing, SessionID: "s-1"})
	inv.Respond(rpc.OpOcrSchedule, rpc.JobHandle{JobID: "j-ocr"})
	inv.Respond(rpc.OpStepsGenerateCandidates, rpc.JobHandle{JobID: "j-steps"})
	inv.Respond(rpc.OpTutorialGenerate, rpc.JobHandle{JobID: "j-tut"})
	inv.Respond(rpc.OpTutorialValidateExport, rpc.GateResult{Allowed: true})
	inv.Respond(rpc.OpTutorialExportPack, rpc.ExportResult{
		ExportID: "e-1", OutputPath: "/tmp/bundle.zip", BundleHash: "abc123",
	})
	inv.Respond(rpc.OpExportVerifyBundle, rpc.VerifyResult{Valid: true})
	inv.Respond(rpc.OpCaptureStop, rpc.CaptureStatus{State: rpc.CaptureStopped})
	return inv
}

func TestRunHappyPath(t *testing.T) {
	inv := happyInvoker()
	store := uistate.New()
	runner := NewRunner(inv, store)

	var observed []Stage
	result, err := runner.Run(context.Background(), Request{
		SessionLabel: "demo",
		OutputDir:    "/tmp",
		OnStage:      func(s Stage) { observed = append(observed, s) },
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.SessionID != "s-1" || result.OutputPath != "/tmp/bundle.zip" || result.BundleHash != "abc123" {
		t.Errorf("result = %+v", result)
	}
	if !result.VerifyValid {
		t.Error("verify_valid = false")
	}

	// Every stage observed, in order, ending with complete.
	if len(observed) != len(Stages) {
		t.Fatalf("observed stages = %v", observed)
	}
	for i, stage := range Stages {
		if observed[i] != stage {
			t.Fatalf("observed stages = %v, want %v", observed, Stages)
		}
	}

	// capture_stop is part of the wind-down, after verification.
	ops := inv.Operations()
	if ops[len(ops)-1] != rpc.OpCaptureStop {
		t.Errorf("last operation = %q, want capture_stop", ops[len(ops)-1])
	}

	state := store.GetState()
	if state.ActiveSessionID != "s-1" {
		t.Errorf("active session = %q", state.ActiveSessionID)
	}
	if state.SessionHeadSeq["s-1"] != 1 {
		t.Errorf("head_seq = %d, want 1 from session_create", state.SessionHeadSeq["s-1"])
	}
	if state.LastErrorCode != "" {
		t.Errorf("last error = %q, want cleared", state.LastErrorCode)
	}
}

func TestRunFailFast(t *testing.T) {
	inv := happyInvoker()
	inv.Fail(rpc.OpOcrSchedule, apperr.New(apperr.CodeIO, "frame store unreadable"))

	store := uistate.New()
	var observed []Stage
	_, err := NewRunner(inv, store).Run(context.Background(), Request{
		SessionLabel: "demo",
		OnStage:      func(s Stage) { observed = append(observed, s) },
	})
	if !apperr.Is(err, apperr.CodeIO) {
		t.Fatalf("err = %v, want IO", err)
	}

	// Nothing after the failing stage runs.
	for _, op := range inv.Operations() {
		switch op {
		case rpc.OpStepsGenerateCandidates, rpc.OpTutorialGenerate,
			rpc.OpTutorialValidateExport, rpc.OpTutorialExportPack,
			rpc.OpExportVerifyBundle, rpc.OpCaptureStop:
			t.Errorf("operation %q ran after the failure", op)
		}
	}
	if last := observed[len(observed)-1]; last != StageOcr {
		t.Errorf("last observed stage = %q, want ocr", last)
	}
	if got := store.GetState().LastErrorCode; got != apperr.CodeIO {
		t.Errorf("last error = %q, want IO", got)
	}
}

func TestRunGateRejection(t *testing.T) {
	inv := happyInvoker()
	inv.Respond(rpc.OpTutorialValidateExport, rpc.GateResult{
		Allowed: false,
		Reasons: []string{"step 3 has no evidence", "anchor confidence below threshold"},
	})

	_, err := NewRunner(inv, uistate.New()).Run(context.Background(), Request{SessionLabel: "demo"})
	appErr := apperr.From(err)
	if appErr == nil || appErr.Code != apperr.CodeExportGateFailed {
		t.Fatalf("err = %v, want EXPORT_GATE_FAILED", err)
	}
	if appErr.Message != "step 3 has no evidence; anchor confidence below threshold" {
		t.Errorf("message = %q", appErr.Message)
	}
	if appErr.Recoverable {
		t.Error("a gate rejection is not recoverable")
	}
	if appErr.ActionHint != "Fix steps or anchors before export" {
		t.Errorf("action_hint = %q", appErr.ActionHint)
	}

	for _, op := range inv.Operations() {
		if op == rpc.OpTutorialExportPack || op == rpc.OpExportVerifyBundle {
			t.Errorf("operation %q ran after gate rejection", op)
		}
	}
}

func TestRunVerificationFailure(t *testing.T) {
	inv := happyInvoker()
	inv.Respond(rpc.OpExportVerifyBundle, rpc.VerifyResult{
		Valid:  false,
		Issues: []string{"bundle hash mismatch", "missing proof entry for step 2"},
	})

	var observed []Stage
	_, err := NewRunner(inv, uistate.New()).Run(context.Background(), Request{
		SessionLabel: "demo",
		OnStage:      func(s Stage) { observed = append(observed, s) },
	})
	appErr := apperr.From(err)
	if appErr == nil || appErr.Code != apperr.CodeExportGateFailed {
		t.Fatalf("err = %v, want EXPORT_GATE_FAILED", err)
	}
	if appErr.Message != "Export verification failed" {
		t.Errorf("message = %q", appErr.Message)
	}
	if appErr.Details != "bundle hash mismatch; missing proof entry for step 2" {
		t.Errorf("details = %q", appErr.Details)
	}
	if !appErr.Recoverable {
		t.Error("a verification miss is recoverable")
	}
	if !strings.Contains(appErr.ActionHint, "proof ledger") {
		t.Errorf("action_hint = %q", appErr.ActionHint)
	}

	for _, stage := range observed {
		if stage == StageComplete {
			t.Error("complete observed on a failed run")
		}
	}
}

func TestRunCaptureStopFailureIgnored(t *testing.T) {
	inv := happyInvoker()
	inv.Fail(rpc.OpCaptureStop, apperr.New(apperr.CodeInternal, "capture already gone"))

	result, err := NewRunner(inv, uistate.New()).Run(context.Background(), Request{SessionLabel: "demo"})
	if err != nil {
		t.Fatalf("a failed capture_stop must not fail the run: %v", err)
	}
	if !result.VerifyValid {
		t.Errorf("result = %+v", result)
	}
}
