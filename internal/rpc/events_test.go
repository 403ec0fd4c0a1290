package rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnectEventsDecodesEnvelopes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/job_status" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"stream_seq\":1,\"payload\":{\"job_id\":\"j-1\",\"status\":\"RUNNING\"}}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"stream_seq\":2,\"payload\":{\"job_id\":\"j-1\",\"status\":\"SUCCEEDED\"}}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs := ConnectEvents(ctx, EventStreamOptions{
		BaseURL: srv.URL,
		Channel: ChannelJobStatus,
		Token:   "tok-1",
	})

	var seqs []uint64
	for env := range events {
		seqs = append(seqs, env.StreamSeq)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	// The malformed middle event is skipped, not fatal.
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Errorf("stream_seqs = %v, want [1 2]", seqs)
	}
}

func TestConnectEventsReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs := ConnectEvents(ctx, EventStreamOptions{BaseURL: srv.URL, Channel: ChannelCaptureStatus})
	for range events {
	}
	if err := <-errs; err == nil {
		t.Fatal("expected an error for a non-200 endpoint")
	}
}
