package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodeValid(t *testing.T) {
	valid := []Code{
		CodePermissionDenied, CodeValidationFailed, CodeNotFound,
		CodeConflict, CodePolicyBlocked, CodeNetworkBlocked,
		CodeExportGateFailed, CodeProviderSchemaInvalid, CodeIO,
		CodeDB, CodeJobCancelled, CodeUnsupported, CodeInternal,
	}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("Code(%q).Valid() = false, want true", c)
		}
	}

	for _, c := range []Code{"", "TIMEOUT", "conflict", "INTERNAL "} {
		if c.Valid() {
			t.Errorf("Code(%q).Valid() = true, want false", c)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeConflict, "head_seq moved")
	if got, want := err.Error(), "CONFLICT: head_seq moved"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"taxonomy error", New(CodeNotFound, "missing"), CodeNotFound},
		{"wrapped taxonomy error", fmt.Errorf("during load: %w", New(CodeDB, "locked")), CodeDB},
		{"foreign error", errors.New("boom"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(CodeConflict, "stale")
	if !Is(err, CodeConflict) {
		t.Error("Is(conflict err, CodeConflict) = false")
	}
	if Is(err, CodeNotFound) {
		t.Error("Is(conflict err, CodeNotFound) = true")
	}
	if Is(nil, CodeInternal) {
		t.Error("Is(nil, CodeInternal) = true")
	}
}

func TestFromNormalizesForeignErrors(t *testing.T) {
	if From(nil) != nil {
		t.Fatal("From(nil) != nil")
	}

	orig := New(CodePolicyBlocked, "input capture disabled")
	if got := From(orig); got != orig {
		t.Errorf("From(taxonomy err) = %v, want original", got)
	}

	got := From(errors.New("connection reset"))
	if got.Code != CodeInternal {
		t.Errorf("From(foreign).Code = %q, want INTERNAL", got.Code)
	}
	if !strings.Contains(got.Message, "connection reset") {
		t.Errorf("From(foreign).Message = %q, want original text preserved", got.Message)
	}
}

func TestErrorJSONOmitsEmptyOptionalFields(t *testing.T) {
	raw, err := json.Marshal(New(CodeIO, "disk full"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if strings.Contains(s, "details") || strings.Contains(s, "action_hint") {
		t.Errorf("marshaled error carries empty optional fields: %s", s)
	}
	if !strings.Contains(s, `"recoverable":false`) {
		t.Errorf("recoverable must always be present: %s", s)
	}
}
