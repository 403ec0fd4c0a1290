package rpc

import (
	"encoding/json"
	"testing"

	"github.com/opscinema/cinectl/internal/apperr"
)

func TestDecodeResponseSuccess(t *testing.T) {
	resp, appErr := DecodeResponse([]byte(`{"ok":true,"value":{"session_id":"s-1"}}`))
	if appErr != nil {
		t.Fatalf("DecodeResponse: %v", appErr)
	}
	if !resp.OK {
		t.Error("OK = false, want true")
	}
	var session Session
	if err := json.Unmarshal(resp.Value, &session); err != nil {
		t.Fatal(err)
	}
	if session.SessionID != "s-1" {
		t.Errorf("session_id = %q, want s-1", session.SessionID)
	}
}

func TestDecodeResponseFailure(t *testing.T) {
	resp, appErr := DecodeResponse([]byte(`{"ok":false,"error":{"code":"CONFLICT","message":"stale base_seq","recoverable":true}}`))
	if appErr != nil {
		t.Fatalf("DecodeResponse: %v", appErr)
	}
	if resp.OK {
		t.Error("OK = true, want false")
	}
	if resp.Error.Code != apperr.CodeConflict {
		t.Errorf("code = %q, want CONFLICT", resp.Error.Code)
	}
	if !resp.Error.Recoverable {
		t.Error("recoverable = false, want true")
	}
}

func TestDecodeResponseRejectsUnrecognizableEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `garbage`},
		{"json array", `[1,2,3]`},
		{"missing ok", `{"value":{}}`},
		{"ok not boolean", `{"ok":"yes"}`},
		{"failure without error", `{"ok":false}`},
		{"failure with unknown code", `{"ok":false,"error":{"code":"TIMEOUT","message":"x"}}`},
		{"failure with empty error", `{"ok":false,"error":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, appErr := DecodeResponse([]byte(tt.raw))
			if appErr == nil {
				t.Fatalf("DecodeResponse(%s) accepted, resp = %+v", tt.raw, resp)
			}
			if appErr.Code != apperr.CodeInternal {
				t.Errorf("code = %q, want INTERNAL", appErr.Code)
			}
		})
	}
}

func TestRequestWireShape(t *testing.T) {
	args, _ := json.Marshal(SessionIDArgs{SessionID: "s-1"})
	raw, err := json.Marshal(Request{
		Operation:     OpStepsList,
		Args:          args,
		ClientVersion: "1.2.3",
	})
	if err != nil {
		t.Fatal(err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		t.Fatal(err)
	}
	if string(probe["operation"]) != `"steps_list"` {
		t.Errorf("operation = %s", probe["operation"])
	}
	if _, ok := probe["token"]; ok {
		t.Error("empty token must be omitted from the wire")
	}
	if _, ok := probe["request_id"]; ok {
		t.Error("empty request_id must be omitted from the wire")
	}
}

func TestStepEditOpWireShape(t *testing.T) {
	tests := []struct {
		name    string
		op      StepEditOp
		wantKey string
	}{
		{"update_title", UpdateTitleOp("st-1", "New title"), "update_title"},
		{"delete", DeleteStepOp("st-2"), "delete"},
		{"reorder", ReorderStepOp("st-3", 4), "reorder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.op)
			if err != nil {
				t.Fatal(err)
			}
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(raw, &probe); err != nil {
				t.Fatal(err)
			}
			if len(probe) != 1 {
				t.Fatalf("wire form must be a one-key object, got %s", raw)
			}
			if _, ok := probe[tt.wantKey]; !ok {
				t.Errorf("missing variant key %q in %s", tt.wantKey, raw)
			}
		})
	}
}
