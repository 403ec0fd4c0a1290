// Package stream ingests push-event envelopes from the backend's
// out-of-band channels. Each channel carries a monotonically increasing
// stream_seq; the sequencer tracks gaps from dropped deliveries and folds
// payloads into the derived state store. No reordering or replay buffering
// is attempted; delivery is assumed append-only per channel, and only loss
// is modeled.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/telemetry"
	"github.com/opscinema/cinectl/internal/uistate"
)

// ChannelStats is the running delivery accounting for one channel.
type ChannelStats struct {
	EventCount uint64
	LastSeq    *uint64
	GapCount   uint64
}

// Sequencer ingests envelopes per channel and keeps derived state current.
// It never raises errors: malformed or duplicate envelopes degrade into
// counters rather than failures.
type Sequencer struct {
	mu       sync.Mutex
	store    *uistate.Store
	channels map[string]*ChannelStats

	// OnMessage, when set, receives user-visible notices such as a job
	// reaching FAILED.
	OnMessage func(msg string)

	gapCounter metric.Int64Counter
}

// New creates a sequencer folding into the given store.
func New(store *uistate.Store) *Sequencer {
	meter := telemetry.Meter("")
	gapCounter, _ := meter.Int64Counter("cinectl.stream.gaps",
		metric.WithDescription("Inferred missed deliveries per push channel"))

	return &Sequencer{
		store:      store,
		channels:   make(map[string]*ChannelStats),
		gapCounter: gapCounter,
	}
}

// Ingest processes one envelope from the named channel. Gap accounting is
// monotone: a late or duplicate arrival (seq <= last) contributes nothing
// and does not move last_seq backward.
func (s *Sequencer) Ingest(channel string, env rpc.Envelope) {
	s.mu.Lock()
	stats, ok := s.channels[channel]
	if !ok {
		stats = &ChannelStats{}
		s.channels[channel] = stats
	}

	var skipped uint64
	if stats.LastSeq != nil && env.StreamSeq > *stats.LastSeq+1 {
		skipped = env.StreamSeq - *stats.LastSeq - 1
	}
	stats.GapCount += skipped
	if stats.LastSeq == nil || env.StreamSeq > *stats.LastSeq {
		seq := env.StreamSeq
		stats.LastSeq = &seq
	}
	stats.EventCount++
	s.mu.Unlock()

	if skipped > 0 && s.gapCounter != nil {
		s.gapCounter.Add(context.Background(), int64(skipped),
			metric.WithAttributes(attribute.String("channel", channel)))
	}

	s.fold(channel, env.Payload)
}

// Stats returns a copy of the accounting for one channel.
func (s *Sequencer) Stats(channel string) ChannelStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.channels[channel]
	if !ok {
		return ChannelStats{}
	}
	out := ChannelStats{EventCount: stats.EventCount, GapCount: stats.GapCount}
	if stats.LastSeq != nil {
		seq := *stats.LastSeq
		out.LastSeq = &seq
	}
	return out
}

func (s *Sequencer) fold(channel string, payload json.RawMessage) {
	switch channel {
	case rpc.ChannelJobStatus:
		var ev rpc.JobStatusEvent
		if err := json.Unmarshal(payload, &ev); err != nil || ev.JobID == "" {
			return
		}
		s.store.IngestJobStatus(ev)
		if ev.Status == rpc.JobFailed && s.OnMessage != nil {
			s.OnMessage(fmt.Sprintf("Job %s failed", ev.JobID))
		}
	case rpc.ChannelJobProgress:
		// Progress is display-only; nothing in the derived state depends
		// on it, so a dropped progress event costs nothing.
	case rpc.ChannelCaptureStatus:
		var ev rpc.CaptureStatusEvent
		if err := json.Unmarshal(payload, &ev); err != nil || ev.State == "" {
			return
		}
		s.store.IngestCaptureStatus(ev)
	}
}
