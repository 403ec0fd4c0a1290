package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/stream"
	"github.com/opscinema/cinectl/internal/ui"
)

var watchChannels []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream push events from the daemon",
	Long: `Subscribes to the daemon's push channels (job_status, job_progress,
capture_status) and prints events as they arrive. Dropped connections are
retried with exponential backoff; per-channel delivery gaps are reported
on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		channels := watchChannels
		if len(channels) == 0 {
			channels = rpc.Channels
		}
		for _, ch := range channels {
			if ch != rpc.ChannelJobStatus && ch != rpc.ChannelJobProgress && ch != rpc.ChannelCaptureStatus {
				return fmt.Errorf("unknown channel %q", ch)
			}
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		seq := stream.New(store)
		seq.OnMessage = func(msg string) {
			fmt.Printf("%s %s\n", ui.RenderFail(ui.IconFail), msg)
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, channel := range channels {
			channel := channel
			g.Go(func() error {
				return watchChannel(ctx, channel, seq)
			})
		}
		err := g.Wait()

		for _, channel := range channels {
			stats := seq.Stats(channel)
			line := fmt.Sprintf("%s: %d events, %d gaps", channel, stats.EventCount, stats.GapCount)
			if stats.GapCount > 0 {
				fmt.Println(ui.RenderWarn(line))
			} else {
				fmt.Println(ui.RenderMuted(line))
			}
		}
		if ctx.Err() != nil {
			// Interrupted by the user; not a failure.
			return nil
		}
		return err
	},
}

// watchChannel keeps one channel subscription alive, reconnecting with
// exponential backoff until the context ends. A delivered event resets the
// backoff clock.
func watchChannel(ctx context.Context, channel string, seq *stream.Sequencer) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry until canceled

	operation := func() error {
		attemptCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		events, errs := rpc.ConnectEvents(attemptCtx, rpc.EventStreamOptions{
			BaseURL: cfg.EventsURL,
			Channel: channel,
			Token:   cfg.Token,
		})
		for {
			select {
			case env, ok := <-events:
				if !ok {
					return fmt.Errorf("%s stream closed", channel)
				}
				bo.Reset()
				seq.Ingest(channel, env)
				printEvent(channel, env)
			case err := <-errs:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
		}
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printEvent(channel string, env rpc.Envelope) {
	if jsonOutput {
		fmt.Printf(`{"channel":%q,"stream_seq":%d,"payload":%s}`+"\n", channel, env.StreamSeq, env.Payload)
		return
	}
	ts := env.SentAt.Format("15:04:05")
	fmt.Printf("%s %s %s #%d %s\n", ui.RenderMuted(ts), ui.RenderAccent("•"), channel, env.StreamSeq, env.Payload)
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchChannels, "channel", nil, "Channels to watch (default: all)")
	rootCmd.AddCommand(watchCmd)
}
