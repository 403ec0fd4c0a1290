// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/opscinema/cinectl/internal/apperr"
)

// Call records one invocation seen by a FakeInvoker.
type Call struct {
	Operation string
	Args      json.RawMessage
}

// FakeInvoker is an in-memory gateway double. Handlers are registered per
// operation and can be swapped mid-test (e.g. to conflict once and then
// accept). Operations without a handler fail with NOT_FOUND so a test that
// drifts from its script fails loudly.
type FakeInvoker struct {
	mu       sync.Mutex
	handlers map[string]func(args json.RawMessage) (any, error)
	calls    []Call
}

// NewFakeInvoker returns an empty fake.
func NewFakeInvoker() *FakeInvoker {
	return &FakeInvoker{handlers: make(map[string]func(json.RawMessage) (any, error))}
}

// Handle registers a handler returning a value (marshaled into the caller's
// out) or an error.
func (f *FakeInvoker) Handle(operation string, fn func(args json.RawMessage) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[operation] = fn
}

// Respond registers a fixed success value for an operation.
func (f *FakeInvoker) Respond(operation string, value any) {
	f.Handle(operation, func(json.RawMessage) (any, error) { return value, nil })
}

// Fail registers a fixed error for an operation.
func (f *FakeInvoker) Fail(operation string, err *apperr.Error) {
	f.Handle(operation, func(json.RawMessage) (any, error) { return nil, err })
}

// Invoke implements rpc.Invoker.
func (f *FakeInvoker) Invoke(ctx context.Context, operation string, args any, out any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return apperr.Internalf("marshal %s args: %v", operation, err)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Operation: operation, Args: argsJSON})
	fn, ok := f.handlers[operation]
	f.mu.Unlock()

	if !ok {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("no handler for %s", operation))
	}

	value, err := fn(argsJSON)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return apperr.Internalf("marshal %s value: %v", operation, err)
	}
	if err := json.Unmarshal(valueJSON, out); err != nil {
		return apperr.Internalf("decode %s value: %v", operation, err)
	}
	return nil
}

// Calls returns a copy of all recorded invocations in order.
func (f *FakeInvoker) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Operations returns just the operation names, in call order.
func (f *FakeInvoker) Operations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.calls))
	for i, c := range f.calls {
		ops[i] = c.Operation
	}
	return ops
}
