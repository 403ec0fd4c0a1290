package edit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/testutil"
	"github.com/opscinema/cinectl/internal/uistate"
)

func conflictErr() *apperr.Error {
	return &apperr.Error{Code: apperr.CodeConflict, Message: "stale base_seq", Recoverable: true}
}

func TestApplySuccessNoRetry(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpStepsApplyEdit, rpc.StepsApplyEditResult{HeadSeq: 11, Applied: true})

	store := uistate.New()
	r := NewResolver(inv, store)

	result, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 10, rpc.UpdateTitleOp("st-1", "t"))
	if err != nil {
		t.Fatal(err)
	}
	if result.HeadSeq != 11 || !result.Applied {
		t.Errorf("result = %+v", result)
	}
	if got := inv.Operations(); len(got) != 1 {
		t.Errorf("operations = %v, want a single apply", got)
	}
	if got := store.GetState().SessionHeadSeq["s-1"]; got != 11 {
		t.Errorf("cached head_seq = %d, want 11", got)
	}
}

func TestConflictRefreshesAndRetriesOnce(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	var baseSeqs []int64
	inv.Handle(rpc.OpStepsApplyEdit, func(args json.RawMessage) (any, error) {
		var a rpc.StepsApplyEditArgs
		if err := json.Unmarshal(args, &a); err != nil {
			t.Fatal(err)
		}
		baseSeqs = append(baseSeqs, a.BaseSeq)
		if a.BaseSeq != 14 {
			return nil, conflictErr()
		}
		return rpc.StepsApplyEditResult{HeadSeq: 15, Applied: true}, nil
	})
	inv.Respond(rpc.OpStepsList, rpc.StepsListResult{HeadSeq: 14})

	r := NewResolver(inv, uistate.New())
	result, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 10, rpc.UpdateTitleOp("st-1", "t"))
	if err != nil {
		t.Fatal(err)
	}
	if result.HeadSeq != 15 {
		t.Errorf("head_seq = %d, want 15", result.HeadSeq)
	}

	wantOps := []string{rpc.OpStepsApplyEdit, rpc.OpStepsList, rpc.OpStepsApplyEdit}
	gotOps := inv.Operations()
	if len(gotOps) != len(wantOps) {
		t.Fatalf("operations = %v, want %v", gotOps, wantOps)
	}
	for i := range wantOps {
		if gotOps[i] != wantOps[i] {
			t.Fatalf("operations = %v, want %v", gotOps, wantOps)
		}
	}
	if len(baseSeqs) != 2 || baseSeqs[0] != 10 || baseSeqs[1] != 14 {
		t.Errorf("base_seqs = %v, want [10 14]", baseSeqs)
	}
}

func TestSecondConflictIsFinal(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Fail(rpc.OpStepsApplyEdit, conflictErr())
	inv.Respond(rpc.OpStepsList, rpc.StepsListResult{HeadSeq: 14})

	r := NewResolver(inv, uistate.New())
	_, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 10, rpc.UpdateTitleOp("st-1", "t"))
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Fatalf("err = %v, want CONFLICT", err)
	}

	// Exactly two apply attempts, never a loop.
	applies := 0
	for _, op := range inv.Operations() {
		if op == rpc.OpStepsApplyEdit {
			applies++
		}
	}
	if applies != 2 {
		t.Errorf("apply attempts = %d, want 2", applies)
	}
}

func TestRefreshFailureReturnedInPlace(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Fail(rpc.OpStepsApplyEdit, conflictErr())
	inv.Fail(rpc.OpStepsList, apperr.New(apperr.CodeDB, "database locked"))

	r := NewResolver(inv, uistate.New())
	_, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 10, rpc.UpdateTitleOp("st-1", "t"))
	if !apperr.Is(err, apperr.CodeDB) {
		t.Fatalf("err = %v, want the refresh failure", err)
	}
	if got := len(inv.Operations()); got != 2 {
		t.Errorf("operations = %v, retry must not run after a failed refresh", inv.Operations())
	}
}

func TestNonConflictErrorPassesThrough(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Fail(rpc.OpStepsApplyEdit, apperr.New(apperr.CodeValidationFailed, "empty title"))

	r := NewResolver(inv, uistate.New())
	_, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 10, rpc.UpdateTitleOp("st-1", ""))
	if !apperr.Is(err, apperr.CodeValidationFailed) {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	if got := len(inv.Operations()); got != 1 {
		t.Errorf("operations = %v, want a single attempt", inv.Operations())
	}
}

func TestNilStoreIsAllowed(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpStepsApplyEdit, rpc.StepsApplyEditResult{HeadSeq: 2, Applied: true})

	r := NewResolver(inv, nil)
	if _, err := r.ApplyWithConflictRetry(context.Background(), "s-1", 1, rpc.DeleteStepOp("st-1")); err != nil {
		t.Fatal(err)
	}
}
