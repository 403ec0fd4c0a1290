// Package uistate holds the minimal derived view of mutable backend state:
// active route and session, cached head sequence per session, job statuses,
// capture state. The store is the only mutation path for that state;
// everything it holds is derived and rebuildable from the backend.
package uistate

import (
	"sync"

	"github.com/opscinema/cinectl/internal/apperr"
	"github.com/opscinema/cinectl/internal/rpc"
)

// Invalidations are dependency hints for consumers deciding whether to
// re-fetch a view. Consumers poll and clear them explicitly; they are not a
// reactive graph.
type Invalidations struct {
	Jobs    bool
	Capture bool
	Session bool
}

// State is a copy of the derived state at one point in time.
type State struct {
	ActiveRoute     string
	ActiveSessionID string
	SessionHeadSeq  map[string]int64
	Jobs            map[string]rpc.JobStatus
	CaptureState    rpc.CaptureState
	Invalidated     Invalidations
	LastErrorCode   apperr.Code
}

// Store owns the derived state. All mutation goes through its methods.
type Store struct {
	mu    sync.Mutex
	state State
}

// New returns a store with the initial route and an idle capture state.
func New() *Store {
	return &Store{
		state: State{
			ActiveRoute:    "permissions",
			SessionHeadSeq: make(map[string]int64),
			Jobs:           make(map[string]rpc.JobStatus),
			CaptureState:   rpc.CaptureIdle,
		},
	}
}

// GetState returns a snapshot copy; map fields are cloned so callers cannot
// mutate derived state behind the store's back.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.SessionHeadSeq = make(map[string]int64, len(s.state.SessionHeadSeq))
	for k, v := range s.state.SessionHeadSeq {
		snap.SessionHeadSeq[k] = v
	}
	snap.Jobs = make(map[string]rpc.JobStatus, len(s.state.Jobs))
	for k, v := range s.state.Jobs {
		snap.Jobs[k] = v
	}
	return snap
}

// SetActiveRoute records the route currently displayed.
func (s *Store) SetActiveRoute(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveRoute != route {
		s.state.ActiveRoute = route
	}
}

// SetActiveSession switches the active session. A change raises the session
// invalidation flag; setting the same id again is a no-op.
func (s *Store) SetActiveSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveSessionID != sessionID {
		s.state.ActiveSessionID = sessionID
		s.state.Invalidated.Session = true
	}
}

// SetSessionHeadSeq caches a session's head sequence. A changed value raises
// the session invalidation flag.
func (s *Store) SetSessionHeadSeq(sessionID string, headSeq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.state.SessionHeadSeq[sessionID]; !ok || prev != headSeq {
		s.state.SessionHeadSeq[sessionID] = headSeq
		s.state.Invalidated.Session = true
	}
}

// IngestJobStatus folds a job status event into the per-job map. Last
// writer wins; every ingest raises the jobs invalidation flag.
func (s *Store) IngestJobStatus(ev rpc.JobStatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Jobs[ev.JobID] = ev.Status
	s.state.Invalidated.Jobs = true
}

// IngestCaptureStatus folds a capture status event into the capture state.
// If the event names a session, that session becomes the active one.
func (s *Store) IngestCaptureStatus(ev rpc.CaptureStatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CaptureState = ev.State
	if ev.SessionID != "" {
		s.state.ActiveSessionID = ev.SessionID
	}
	s.state.Invalidated.Capture = true
}

// ClearInvalidations resets all three flags after a consumer has re-fetched.
func (s *Store) ClearInvalidations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Invalidated = Invalidations{}
}

// SetLastError records the code of the most recent failure, or clears it
// when passed the empty code.
func (s *Store) SetLastError(code apperr.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastErrorCode = code
}
