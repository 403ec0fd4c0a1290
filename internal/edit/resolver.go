// Package edit applies step edits under optimistic concurrency. An edit
// carries the base_seq its author believed was current; the backend rejects
// it with CONFLICT when the session's head_seq has moved. Recovery is a
// single refresh-and-retry, never a loop.
package edit

import (
	"context"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/uistate"
)

// Resolver performs conflict-aware step edits against one backend.
type Resolver struct {
	inv   rpc.Invoker
	store *uistate.Store
}

// NewResolver builds a Resolver. The store may be nil when no derived
// state should be kept (one-shot CLI use).
func NewResolver(inv rpc.Invoker, store *uistate.Store) *Resolver {
	return &Resolver{inv: inv, store: store}
}

// ApplyWithConflictRetry attempts the edit with the caller's base_seq. On
// any outcome other than CONFLICT the result is returned unchanged. On
// CONFLICT it fetches the session's current head_seq and retries exactly
// once with the refreshed value; the second attempt's outcome is final,
// success or not. A failed refresh is returned in place of retrying.
func (r *Resolver) ApplyWithConflictRetry(ctx context.Context, sessionID string, baseSeq int64, op rpc.StepEditOp) (*rpc.StepsApplyEditResult, error) {
	result, err := r.apply(ctx, sessionID, baseSeq, op)
	if err == nil || !apperr.Is(err, apperr.CodeConflict) {
		return result, err
	}

	var refreshed rpc.StepsListResult
	if err := r.inv.Invoke(ctx, rpc.OpStepsList,
		rpc.SessionIDArgs{SessionID: sessionID}, &refreshed); err != nil {
		return nil, err
	}

	return r.apply(ctx, sessionID, refreshed.HeadSeq, op)
}

func (r *Resolver) apply(ctx context.Context, sessionID string, baseSeq int64, op rpc.StepEditOp) (*rpc.StepsApplyEditResult, error) {
	var result rpc.StepsApplyEditResult
	err := r.inv.Invoke(ctx, rpc.OpStepsApplyEdit, rpc.StepsApplyEditArgs{
		SessionID: sessionID,
		BaseSeq:   baseSeq,
		Op:        op,
	}, &result)
	if err != nil {
		return nil, err
	}
	if r.store != nil {
		r.store.SetSessionHeadSeq(sessionID, result.HeadSeq)
	}
	return &result, nil
}
