package rpc

import (
	"encoding/json"
	"time"

	"github.com/opscinema/cinectl/internal/apperr"
)

// Session is the backend's summary of one recording session. HeadSeq is the
// optimistic-concurrency token for all edits scoped to the session; it only
// ever increases.
type Session struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
	ClosedAt  string `json:"closed_at,omitempty"`
	HeadSeq   int64  `json:"head_seq"`
	HeadHash  string `json:"head_hash"`
}

// SessionDetail pairs a session summary with its metadata map.
type SessionDetail struct {
	Summary  Session           `json:"summary"`
	Metadata map[string]string `json:"metadata"`
}

// BBoxNorm is a normalized bounding box in [0,1] coordinates.
type BBoxNorm struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Locator pins a piece of evidence to an asset, frame, region, or text span.
type Locator struct {
	LocatorType string    `json:"locator_type"`
	AssetID     string    `json:"asset_id,omitempty"`
	FrameMs     *int64    `json:"frame_ms,omitempty"`
	BBoxNorm    *BBoxNorm `json:"bbox_norm,omitempty"`
	TextOffset  *struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"text_offset,omitempty"`
	Note string `json:"note,omitempty"`
}

// TextBlock is one block of a step body with its provenance and evidence.
type TextBlock struct {
	BlockID      string   `json:"block_id"`
	Text         string   `json:"text"`
	Provenance   string   `json:"provenance"` // "human" or "generated"
	EvidenceRefs []string `json:"evidence_refs"`
}

// StructuredText is a step body.
type StructuredText struct {
	Blocks []TextBlock `json:"blocks"`
}

// Step is one step of a generated tutorial.
type Step struct {
	StepID      string         `json:"step_id"`
	Title       string         `json:"title"`
	OrderIndex  int            `json:"order_index"`
	Body        StructuredText `json:"body"`
	RiskTags    []string       `json:"risk_tags"`
	BranchLabel string         `json:"branch_label,omitempty"`
}

// AnchorCandidate locates a step's UI target across frames.
type AnchorCandidate struct {
	AnchorID        string    `json:"anchor_id"`
	StepID          string    `json:"step_id"`
	Kind            string    `json:"kind"`
	TargetSignature string    `json:"target_signature"`
	Confidence      float64   `json:"confidence"`
	Degraded        bool      `json:"degraded"`
	Locators        []Locator `json:"locators"`
}

// StepEditOp is the tagged union of step mutations. Exactly one field is
// set; the wire form is a one-key object keyed by the variant name.
type StepEditOp struct {
	InsertAfter *struct {
		AfterStepID string `json:"after_step_id"`
		Step        Step   `json:"step"`
	} `json:"insert_after,omitempty"`
	UpdateTitle *struct {
		StepID string `json:"step_id"`
		Title  string `json:"title"`
	} `json:"update_title,omitempty"`
	ReplaceBody *struct {
		StepID string         `json:"step_id"`
		Body   StructuredText `json:"body"`
	} `json:"replace_body,omitempty"`
	Delete *struct {
		StepID string `json:"step_id"`
	} `json:"delete,omitempty"`
	Reorder *struct {
		StepID   string `json:"step_id"`
		NewIndex int    `json:"new_index"`
	} `json:"reorder,omitempty"`
}

// UpdateTitleOp builds the most common edit op.
func UpdateTitleOp(stepID, title string) StepEditOp {
	var op StepEditOp
	op.UpdateTitle = &struct {
		StepID string `json:"step_id"`
		Title  string `json:"title"`
	}{StepID: stepID, Title: title}
	return op
}

// DeleteStepOp builds a delete edit op.
func DeleteStepOp(stepID string) StepEditOp {
	var op StepEditOp
	op.Delete = &struct {
		StepID string `json:"step_id"`
	}{StepID: stepID}
	return op
}

// ReorderStepOp builds a reorder edit op.
func ReorderStepOp(stepID string, newIndex int) StepEditOp {
	var op StepEditOp
	op.Reorder = &struct {
		StepID   string `json:"step_id"`
		NewIndex int    `json:"new_index"`
	}{StepID: stepID, NewIndex: newIndex}
	return op
}

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobSucceeded JobStatus = "SUCCEEDED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobHandle is the immediate result of scheduling asynchronous work.
type JobHandle struct {
	JobID string `json:"job_id"`
}

// JobCounters tracks work item progress within a job stage.
type JobCounters struct {
	Done  int64 `json:"done"`
	Total int64 `json:"total"`
}

// JobProgress is the current stage/percentage of a running job.
type JobProgress struct {
	Stage    string      `json:"stage"`
	Pct      int         `json:"pct"`
	Counters JobCounters `json:"counters"`
}

// JobDetail is the full record of one job.
type JobDetail struct {
	JobID     string        `json:"job_id"`
	JobType   string        `json:"job_type"`
	SessionID string        `json:"session_id,omitempty"`
	Status    JobStatus     `json:"status"`
	CreatedAt string        `json:"created_at"`
	StartedAt string        `json:"started_at,omitempty"`
	EndedAt   string        `json:"ended_at,omitempty"`
	Progress  *JobProgress  `json:"progress,omitempty"`
	Error     *apperr.Error `json:"error,omitempty"`
}

// CaptureState is the capture pipeline lifecycle state.
type CaptureState string

const (
	CaptureIdle      CaptureState = "IDLE"
	CaptureCapturing CaptureState = "CAPTURING"
	CaptureStopped   CaptureState = "STOPPED"
)

// CaptureStatus is the capture pipeline state plus the session it feeds.
type CaptureStatus struct {
	State     CaptureState `json:"state"`
	SessionID string       `json:"session_id,omitempty"`
	StartedAt string       `json:"started_at,omitempty"`
}

// CaptureConfig holds capture tuning knobs.
type CaptureConfig struct {
	KeyframeIntervalMs int  `json:"keyframe_interval_ms"`
	IncludeInput       bool `json:"include_input"`
	IncludeWindowMeta  bool `json:"include_window_meta"`
}

// Envelope is the push-event wrapper. StreamSeq is a channel-scoped counter
// that may skip values on dropped delivery but never repeats or decreases
// under normal operation.
type Envelope struct {
	StreamSeq uint64          `json:"stream_seq"`
	SentAt    time.Time       `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

// JobStatusEvent is the payload on the job_status channel.
type JobStatusEvent struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// JobProgressEvent is the payload on the job_progress channel.
type JobProgressEvent struct {
	JobID    string      `json:"job_id"`
	Stage    string      `json:"stage"`
	Pct      int         `json:"pct"`
	Counters JobCounters `json:"counters"`
}

// CaptureStatusEvent is the payload on the capture_status channel.
type CaptureStatusEvent struct {
	State     CaptureState `json:"state"`
	SessionID string       `json:"session_id,omitempty"`
}

// OcrBlock is one recognized text region.
type OcrBlock struct {
	OcrBlockID string   `json:"ocr_block_id"`
	BBoxNorm   BBoxNorm `json:"bbox_norm"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Language   string   `json:"language,omitempty"`
}

// Evidence links generated content back to captured source material.
type Evidence struct {
	EvidenceID string    `json:"evidence_id"`
	Kind       string    `json:"kind"`
	SourceID   string    `json:"source_id"`
	Locators   []Locator `json:"locators"`
}

// ExportWarning is a non-fatal note attached to an export.
type ExportWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExportResult describes a packed bundle on disk.
type ExportResult struct {
	ExportID   string          `json:"export_id"`
	OutputPath string          `json:"output_path"`
	BundleHash string          `json:"bundle_hash"`
	Warnings   []ExportWarning `json:"warnings"`
}

// GateResult is the domain authorization decision for export. A false
// Allowed on a successful round trip is a domain gate rejection, not a
// transport failure.
type GateResult struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

// VerifyResult is the independent re-verification of a packed bundle.
type VerifyResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Verifier describes one registered verification tool.
type Verifier struct {
	VerifierID       string   `json:"verifier_id"`
	Kind             string   `json:"kind"`
	TimeoutSecs      int      `json:"timeout_secs"`
	CommandAllowlist []string `json:"command_allowlist"`
}

// Model is a registered inference provider entry.
type Model struct {
	ModelID  string `json:"model_id"`
	Provider string `json:"provider"`
	Label    string `json:"label"`
	Digest   string `json:"digest"`
}

// ModelRoles maps workload roles to model ids.
type ModelRoles struct {
	TutorialGeneration string `json:"tutorial_generation,omitempty"`
	ScreenExplainer    string `json:"screen_explainer,omitempty"`
	AnchorGrounding    string `json:"anchor_grounding,omitempty"`
}

// BenchEntry is one recorded benchmark run.
type BenchEntry struct {
	BenchID   string  `json:"bench_id"`
	ModelID   string  `json:"model_id"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

// BuildInfo identifies the backend build.
type BuildInfo struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
	Commit     string `json:"commit"`
	BuiltAt    string `json:"built_at"`
}

// PermissionsStatus reports OS-level capture permissions.
type PermissionsStatus struct {
	ScreenRecording bool `json:"screen_recording"`
	Accessibility   bool `json:"accessibility"`
	FullDiskAccess  bool `json:"full_disk_access"`
}

// Settings holds user-facing policy toggles.
type Settings struct {
	OfflineMode         bool `json:"offline_mode"`
	AllowInputCapture   bool `json:"allow_input_capture"`
	AllowWindowMetadata bool `json:"allow_window_metadata"`
}

// Allowlist is the network egress allowlist.
type Allowlist struct {
	Entries []string `json:"entries"`
}

// TimelineKeyframe is one keyframe reference on a session timeline.
type TimelineKeyframe struct {
	FrameEventID string `json:"frame_event_id"`
	FrameMs      int64  `json:"frame_ms"`
	Asset        struct {
		AssetID string `json:"asset_id"`
	} `json:"asset"`
}

// TimelineEvent is one ordered event on a session timeline.
type TimelineEvent struct {
	Seq       int64  `json:"seq"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	FrameMs   *int64 `json:"frame_ms,omitempty"`
}

// Argument structs for the operations the client exercises.

type SessionCreateArgs struct {
	Label    string            `json:"label"`
	Metadata map[string]string `json:"metadata"`
}

type SessionListArgs struct {
	Limit int `json:"limit,omitempty"`
}

type SessionIDArgs struct {
	SessionID string `json:"session_id"`
}

type TimelineEventsArgs struct {
	SessionID string `json:"session_id"`
	AfterSeq  *int64 `json:"after_seq,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type CaptureStatusArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

type OcrScheduleArgs struct {
	SessionID string `json:"session_id"`
	StartMs   *int64 `json:"start_ms,omitempty"`
	EndMs     *int64 `json:"end_ms,omitempty"`
}

type OcrSearchArgs struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type EvidenceTimeRangeArgs struct {
	SessionID string `json:"session_id"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
}

type StepRefArgs struct {
	SessionID string `json:"session_id"`
	StepID    string `json:"step_id"`
}

type StepsApplyEditArgs struct {
	SessionID string     `json:"session_id"`
	BaseSeq   int64      `json:"base_seq"`
	Op        StepEditOp `json:"op"`
}

type TutorialExportPackArgs struct {
	SessionID string `json:"session_id"`
	OutputDir string `json:"output_dir"`
}

type VerifierRunArgs struct {
	SessionID  string `json:"session_id"`
	VerifierID string `json:"verifier_id"`
}

type VerifierListArgs struct {
	IncludeDisabled bool `json:"include_disabled"`
}

type ModelsListArgs struct {
	IncludeUnhealthy bool `json:"include_unhealthy"`
}

type AgentPipelineRunArgs struct {
	SessionID  string `json:"session_id"`
	PipelineID string `json:"pipeline_id"`
}

type ExportsListArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

type ExportVerifyBundleArgs struct {
	BundlePath string `json:"bundle_path"`
}

type JobsListArgs struct {
	SessionID string    `json:"session_id,omitempty"`
	Status    JobStatus `json:"status,omitempty"`
}

type JobIDArgs struct {
	JobID string `json:"job_id"`
}

// Result structs for operations returning more than a single domain type.

type StepsListResult struct {
	Steps   []Step `json:"steps"`
	HeadSeq int64  `json:"head_seq"`
}

type StepsGetResult struct {
	Step    Step              `json:"step"`
	Anchors []AnchorCandidate `json:"anchors"`
}

type StepsApplyEditResult struct {
	HeadSeq int64 `json:"head_seq"`
	Applied bool  `json:"applied"`
}

type StepsValidateResult struct {
	SchemaValid   bool     `json:"schema_valid"`
	EvidenceValid bool     `json:"evidence_valid"`
	Errors        []string `json:"errors"`
}

type OcrStatusResult struct {
	QueuedFrames  int `json:"queued_frames"`
	IndexedFrames int `json:"indexed_frames"`
}

type OcrSearchResult struct {
	Hits []struct {
		FrameMs int64  `json:"frame_ms"`
		BlockID string `json:"block_id"`
		Snippet string `json:"snippet"`
	} `json:"hits"`
}

type EvidenceListResult struct {
	Evidence []Evidence `json:"evidence"`
}

type EvidenceCoverageResult struct {
	MissingStepIDs           []string `json:"missing_step_ids"`
	MissingGeneratedBlockIDs []string `json:"missing_generated_block_ids"`
	Pass                     bool     `json:"pass"`
}

type AnchorsListResult struct {
	Anchors []AnchorCandidate `json:"anchors"`
}

type TimelineKeyframesResult struct {
	Keyframes []TimelineKeyframe `json:"keyframes"`
}

type TimelineEventsResult struct {
	Events []TimelineEvent `json:"events"`
}

type VerifierListResult struct {
	Verifiers []Verifier `json:"verifiers"`
}

type ModelsListResult struct {
	Models []Model `json:"models"`
}

type BenchListResult struct {
	Benches []BenchEntry `json:"benches"`
}

type AgentPipelinesListResult struct {
	Pipelines []string `json:"pipelines"`
}

type AgentPipelineReportResult struct {
	RunID       string   `json:"run_id"`
	Diagnostics []string `json:"diagnostics"`
}

type ExportsListResult struct {
	Exports []ExportResult `json:"exports"`
}

type JobsListResult struct {
	Jobs []JobDetail `json:"jobs"`
}

type JobsCancelResult struct {
	Accepted bool `json:"accepted"`
}

type ProofViewResult struct {
	Steps    []Step             `json:"steps"`
	Evidence EvidenceListResult `json:"evidence"`
	Warnings []ExportWarning    `json:"warnings"`
}
