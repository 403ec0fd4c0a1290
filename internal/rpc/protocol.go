package rpc

import (
	"encoding/json"

	"github.com/opscinema/cinectl/internal/apperr"
)

// Operation constants for the backend command surface.
const (
	// App and settings
	OpAppGetBuildInfo         = "app_get_build_info"
	OpAppGetPermissionsStatus = "app_get_permissions_status"
	OpSettingsGet             = "settings_get"
	OpSettingsSet             = "settings_set"
	OpNetworkAllowlistGet     = "network_allowlist_get"
	OpNetworkAllowlistSet     = "network_allowlist_set"

	// Session lifecycle
	OpSessionCreate = "session_create"
	OpSessionList   = "session_list"
	OpSessionGet    = "session_get"
	OpSessionClose  = "session_close"

	// Timeline
	OpTimelineGetKeyframes = "timeline_get_keyframes"
	OpTimelineGetEvents    = "timeline_get_events"
	OpTimelineGetThumbnail = "timeline_get_thumbnail"

	// Capture control
	OpCaptureGetConfig = "capture_get_config"
	OpCaptureSetConfig = "capture_set_config"
	OpCaptureStart     = "capture_start"
	OpCaptureStop      = "capture_stop"
	OpCaptureGetStatus = "capture_get_status"

	// Recognition
	OpOcrSchedule          = "ocr_schedule"
	OpOcrGetStatus         = "ocr_get_status"
	OpOcrSearch            = "ocr_search"
	OpOcrGetBlocksForFrame = "ocr_get_blocks_for_frame"

	// Evidence queries
	OpEvidenceForTimeRange = "evidence_for_time_range"
	OpEvidenceForStep      = "evidence_for_step"
	OpEvidenceFindText     = "evidence_find_text"
	OpEvidenceGetCoverage  = "evidence_get_coverage"

	// Steps
	OpStepsGenerateCandidates = "steps_generate_candidates"
	OpStepsList               = "steps_list"
	OpStepsGet                = "steps_get"
	OpStepsApplyEdit          = "steps_apply_edit"
	OpStepsValidate           = "steps_validate"

	// Anchors
	OpAnchorsListForStep = "anchors_list_for_step"
	OpAnchorsReacquire   = "anchors_reacquire"
	OpAnchorsManualSet   = "anchors_manual_set"
	OpAnchorsDebug       = "anchors_debug"

	// Tutorial generation and export
	OpTutorialGenerate       = "tutorial_generate"
	OpTutorialExportPack     = "tutorial_export_pack"
	OpTutorialValidateExport = "tutorial_validate_export"

	OpExplainThisScreen = "explain_this_screen"

	// Proof and runbooks
	OpProofGetView      = "proof_get_view"
	OpRunbookCreate     = "runbook_create"
	OpRunbookUpdate     = "runbook_update"
	OpRunbookExport     = "runbook_export"
	OpProofExportBundle = "proof_export_bundle"

	// Verifiers
	OpVerifierList      = "verifier_list"
	OpVerifierRun       = "verifier_run"
	OpVerifierGetResult = "verifier_get_result"

	// Model management
	OpModelsList     = "models_list"
	OpModelsRegister = "models_register"
	OpModelsRemove   = "models_remove"
	OpModelRolesGet  = "model_roles_get"
	OpModelRolesSet  = "model_roles_set"
	OpOllamaList     = "ollama_list"
	OpOllamaPull     = "ollama_pull"
	OpOllamaRun      = "ollama_run"
	OpMlxRun         = "mlx_run"
	OpBenchRun       = "bench_run"
	OpBenchList      = "bench_list"

	// Agent pipelines
	OpAgentPipelinesList  = "agent_pipelines_list"
	OpAgentPipelineRun    = "agent_pipeline_run"
	OpAgentPipelineReport = "agent_pipeline_report"

	// Exports and jobs
	OpExportsList        = "exports_list"
	OpExportVerifyBundle = "export_verify_bundle"
	OpJobsList           = "jobs_list"
	OpJobsGet            = "jobs_get"
	OpJobsCancel         = "jobs_cancel"
)

// Request is the wire envelope from client to daemon.
type Request struct {
	Operation     string          `json:"operation"`
	Args          json.RawMessage `json:"args"`
	RequestID     string          `json:"request_id,omitempty"`
	ClientVersion string          `json:"client_version,omitempty"`
	Token         string          `json:"token,omitempty"` // auth for TCP connections
}

// Response is the wire envelope from daemon to client. Exactly one of Value
// or Error is populated, discriminated by OK.
type Response struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error *apperr.Error   `json:"error,omitempty"`
}

// DecodeResponse validates a raw payload against the envelope shape before
// any typed code touches it. Anything that is not a recognizable envelope
// becomes an INTERNAL error rather than propagating an ambiguous object.
func DecodeResponse(raw []byte) (*Response, *apperr.Error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Internalf("malformed response envelope: %v", err)
	}
	okRaw, found := probe["ok"]
	if !found {
		return nil, apperr.Internalf("response envelope missing ok discriminator")
	}
	var ok bool
	if err := json.Unmarshal(okRaw, &ok); err != nil {
		return nil, apperr.Internalf("response envelope ok field is not a boolean")
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.Internalf("malformed response envelope: %v", err)
	}
	if !resp.OK {
		if resp.Error == nil || !resp.Error.Code.Valid() {
			return nil, apperr.Internalf("failure envelope carries no recognizable error")
		}
	}
	return &resp, nil
}
