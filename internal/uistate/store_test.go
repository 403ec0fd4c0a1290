package uistate

import (
	"testing"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
)

func TestNewInitialState(t *testing.T) {
	state := New().GetState()
	if state.ActiveRoute != "permissions" {
		t.Errorf("initial route = %q, want permissions", state.ActiveRoute)
	}
	if state.CaptureState != rpc.CaptureIdle {
		t.Errorf("initial capture state = %q, want IDLE", state.CaptureState)
	}
	if state.Invalidated != (Invalidations{}) {
		t.Errorf("initial invalidations = %+v, want none", state.Invalidated)
	}
}

func TestSetActiveSessionInvalidation(t *testing.T) {
	store := New()
	store.SetActiveSession("s-1")
	if !store.GetState().Invalidated.Session {
		t.Error("changing the active session must raise the session flag")
	}

	store.ClearInvalidations()
	store.SetActiveSession("s-1")
	if store.GetState().Invalidated.Session {
		t.Error("re-setting the same session must not raise the flag")
	}

	store.SetActiveSession("s-2")
	if !store.GetState().Invalidated.Session {
		t.Error("switching sessions must raise the flag again")
	}
}

func TestSetSessionHeadSeq(t *testing.T) {
	store := New()
	store.SetSessionHeadSeq("s-1", 3)
	state := store.GetState()
	if state.SessionHeadSeq["s-1"] != 3 {
		t.Errorf("head_seq = %d, want 3", state.SessionHeadSeq["s-1"])
	}
	if !state.Invalidated.Session {
		t.Error("a new head_seq must raise the session flag")
	}

	store.ClearInvalidations()
	store.SetSessionHeadSeq("s-1", 3)
	if store.GetState().Invalidated.Session {
		t.Error("an unchanged head_seq must not raise the flag")
	}
}

func TestIngestJobStatusLastWriterWins(t *testing.T) {
	store := New()
	store.IngestJobStatus(rpc.JobStatusEvent{JobID: "j-1", Status: rpc.JobRunning})
	store.IngestJobStatus(rpc.JobStatusEvent{JobID: "j-1", Status: rpc.JobSucceeded})

	state := store.GetState()
	if state.Jobs["j-1"] != rpc.JobSucceeded {
		t.Errorf("job status = %q, want SUCCEEDED", state.Jobs["j-1"])
	}
	if !state.Invalidated.Jobs {
		t.Error("ingesting a job status must raise the jobs flag")
	}
}

func TestIngestCaptureStatusAdoptsSession(t *testing.T) {
	store := New()
	store.IngestCaptureStatus(rpc.CaptureStatusEvent{State: rpc.CaptureCapturing, SessionID: "s-9"})

	state := store.GetState()
	if state.CaptureState != rpc.CaptureCapturing {
		t.Errorf("capture state = %q, want CAPTURING", state.CaptureState)
	}
	if state.ActiveSessionID != "s-9" {
		t.Errorf("active session = %q, want s-9", state.ActiveSessionID)
	}
	if !state.Invalidated.Capture {
		t.Error("a capture event must raise the capture flag")
	}

	// An event without a session keeps the current one.
	store.IngestCaptureStatus(rpc.CaptureStatusEvent{State: rpc.CaptureStopped})
	if got := store.GetState().ActiveSessionID; got != "s-9" {
		t.Errorf("active session = %q, want s-9 retained", got)
	}
}

func TestClearInvalidations(t *testing.T) {
	store := New()
	store.SetActiveSession("s-1")
	store.IngestJobStatus(rpc.JobStatusEvent{JobID: "j-1", Status: rpc.JobQueued})
	store.IngestCaptureStatus(rpc.CaptureStatusEvent{State: rpc.CaptureCapturing})

	store.ClearInvalidations()
	if got := store.GetState().Invalidated; got != (Invalidations{}) {
		t.Errorf("invalidations after clear = %+v", got)
	}
}

func TestSetLastError(t *testing.T) {
	store := New()
	store.SetLastError(apperr.CodeExportGateFailed)
	if got := store.GetState().LastErrorCode; got != apperr.CodeExportGateFailed {
		t.Errorf("last error = %q", got)
	}
	store.SetLastError("")
	if got := store.GetState().LastErrorCode; got != "" {
		t.Errorf("last error after clear = %q", got)
	}
}

func TestGetStateReturnsCopies(t *testing.T) {
	store := New()
	store.SetSessionHeadSeq("s-1", 1)

	snap := store.GetState()
	snap.SessionHeadSeq["s-1"] = 99
	snap.Jobs["j-x"] = rpc.JobFailed

	state := store.GetState()
	if state.SessionHeadSeq["s-1"] != 1 {
		t.Error("mutating a snapshot leaked into the store")
	}
	if _, ok := state.Jobs["j-x"]; ok {
		t.Error("mutating a snapshot map leaked into the store")
	}
}
