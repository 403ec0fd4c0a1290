package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Channel names the backend pushes envelopes on. Each channel carries its
// own stream_seq counter.
const (
	ChannelJobStatus     = "job_status"
	ChannelJobProgress   = "job_progress"
	ChannelCaptureStatus = "capture_status"
)

// Channels lists the push channels in a fixed order.
var Channels = []string{ChannelJobStatus, ChannelJobProgress, ChannelCaptureStatus}

// EventStreamOptions configures a push-channel subscription.
type EventStreamOptions struct {
	BaseURL string // e.g. "http://127.0.0.1:7411"
	Channel string // one of the Channel* constants
	Token   string // bearer auth token, optional
}

// ConnectEvents subscribes to one push channel over the daemon's SSE
// endpoint and returns a channel of decoded envelopes. The channel closes
// when the context is canceled or the connection drops; errors are sent to
// the returned error channel. Malformed data lines are skipped rather than
// failing the stream.
func ConnectEvents(ctx context.Context, opts EventStreamOptions) (<-chan Envelope, <-chan error) {
	events := make(chan Envelope, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		url := fmt.Sprintf("%s/events/%s", strings.TrimSuffix(opts.BaseURL, "/"), opts.Channel)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			errs <- fmt.Errorf("creating event stream request: %w", err)
			return
		}
		req.Header.Set("Accept", "text/event-stream")
		if opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+opts.Token)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			errs <- fmt.Errorf("event stream connection failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errs <- fmt.Errorf("event stream endpoint returned status %d", resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var data string
		for scanner.Scan() {
			line := scanner.Text()

			if line == "" {
				// Empty line = event boundary, dispatch if we have data.
				if data != "" {
					var env Envelope
					if err := json.Unmarshal([]byte(data), &env); err == nil {
						select {
						case events <- env:
						case <-ctx.Done():
							return
						}
					} else {
						rpcDebugLog("skipping malformed %s event: %v", opts.Channel, err)
					}
				}
				data = ""
				continue
			}

			if strings.HasPrefix(line, "data:") {
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
			// id: and event: fields carry nothing the envelope doesn't.
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("event stream read: %w", err)
		}
	}()

	return events, errs
}
