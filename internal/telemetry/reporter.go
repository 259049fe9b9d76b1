// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/monobar/playd/internal/log"
	"github.com/monobar/playd/internal/metrics"
)

// DefaultInterval is how often the periodic timeupdate report fires while
// playback is progressing.
const DefaultInterval = 3 * time.Second

const sendTimeout = 5 * time.Second

// PositionSink receives position write-throughs for resume bookkeeping.
type PositionSink interface {
	SavePosition(ctx context.Context, mediaID string, positionSec float64) error
}

// Reporter assembles and delivers status reports for one bound player at a
// time. Every delivery happens on its own goroutine with a bounded timeout,
// so a hung collector can never delay playback state changes or teardown.
type Reporter struct {
	collector Collector
	sink      PositionSink // optional
	logger    zerolog.Logger
	interval  time.Duration
	limiter   *rate.Limiter

	mu        sync.Mutex
	sessionID string
	playerID  string
	mediaID   string
	snapFn    func() Snapshot
	ticker    chan struct{} // close stops the periodic loop; nil when stopped
	stopSent  bool
	wg        sync.WaitGroup
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithInterval overrides the periodic report interval.
func WithInterval(d time.Duration) ReporterOption {
	return func(r *Reporter) { r.interval = d }
}

// WithPositionSink enables position write-through for resume bookkeeping.
func WithPositionSink(sink PositionSink) ReporterOption {
	return func(r *Reporter) { r.sink = sink }
}

// NewReporter creates a reporter delivering to the given collector.
func NewReporter(collector Collector, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		collector: collector,
		logger:    log.WithComponent("telemetry"),
		interval:  DefaultInterval,
		// timeupdate reports are additionally capped to one per second so a
		// misbehaving client cannot flood the collector
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind attaches the reporter to a mounted player. snapFn is polled by the
// periodic loop for live snapshots. Binding resets the stop dedupe.
func (r *Reporter) Bind(sessionID, playerID, mediaID string, snapFn func() Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPeriodicLocked()
	r.sessionID = sessionID
	r.playerID = playerID
	r.mediaID = mediaID
	r.snapFn = snapFn
	r.stopSent = false
}

// SetInterval changes the periodic report interval, e.g. after a config
// reload. A running loop is restarted so the new cadence applies at once.
func (r *Reporter) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d == r.interval {
		return
	}
	r.interval = d
	if r.ticker != nil {
		r.stopPeriodicLocked()
		r.startPeriodicLocked()
	}
}

// Unbind detaches the reporter and stops the periodic loop.
func (r *Reporter) Unbind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPeriodicLocked()
	r.snapFn = nil
	r.playerID = ""
	r.mediaID = ""
}

// Playing starts the periodic timeupdate loop. Idempotent.
func (r *Reporter) Playing() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker != nil {
		return
	}
	r.startPeriodicLocked()
}

// startPeriodicLocked spawns the periodic loop. Caller holds the lock and
// has ensured no loop is running.
func (r *Reporter) startPeriodicLocked() {
	if r.snapFn == nil {
		return
	}
	stop := make(chan struct{})
	r.ticker = stop
	snapFn := r.snapFn
	interval := r.interval
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.Event(IntentTimeUpdate, snapFn())
			}
		}
	}()
}

// Paused stops the periodic loop so a frozen position is never reported as
// if live. Idempotent.
func (r *Reporter) Paused() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPeriodicLocked()
}

// Event delivers one report asynchronously. Failures are logged and
// swallowed.
func (r *Reporter) Event(intent Intent, snap Snapshot) {
	if intent == IntentTimeUpdate && !r.limiter.Allow() {
		return
	}

	r.mu.Lock()
	if r.playerID == "" {
		r.mu.Unlock()
		return
	}
	if intent == IntentStop {
		if r.stopSent {
			r.mu.Unlock()
			return
		}
		r.stopSent = true
		r.stopPeriodicLocked()
	}
	report := Report{
		SessionID: r.sessionID,
		PlayerID:  r.playerID,
		MediaID:   r.mediaID,
		Intent:    intent,
		Snapshot:  snap,
		SentAt:    time.Now(),
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		err := r.collector.Send(ctx, report)
		metrics.IncTelemetryReport(intent.String(), err == nil)
		if err != nil {
			r.logger.Debug().Err(err).
				Str(log.FieldIntent, intent.String()).
				Msg("telemetry delivery failed")
		}

		if r.sink != nil && report.MediaID != "" {
			if err := r.sink.SavePosition(ctx, report.MediaID, snap.PositionSec); err != nil {
				r.logger.Debug().Err(err).Msg("resume position write failed")
			}
		}
	}()
}

// Close stops the periodic loop and waits for in-flight deliveries to finish
// or time out. Only used on daemon shutdown, never in the teardown path.
func (r *Reporter) Close() {
	r.mu.Lock()
	r.stopPeriodicLocked()
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Reporter) stopPeriodicLocked() {
	if r.ticker != nil {
		close(r.ticker)
		r.ticker = nil
	}
}
