package alert

// Alert Gate
//
// The gate throttles notifications for one monitoring session. It is Armed
// until the first Suspicious reading, which dispatches a notification and
// moves it to Cooling down. Further Suspicious readings are suppressed until
// strictly more than the cooldown has passed since the last dispatch; Normal
// readings never change the state. A failed dispatch still starts the
// cooldown so a broken notifier cannot cause a retry storm.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"drone-activity-classifier/drone"

	"github.com/dustin/go-humanize"
	"github.com/mmcloughlin/geohash"
)

// DefaultCooldown is the minimum interval between two notifications.
const DefaultCooldown = 300 * time.Second

// State is the gate's position in its two-state machine.
type State int

const (
	StateArmed State = iota
	StateCoolingDown
)

func (s State) String() string {
	if s == StateCoolingDown {
		return "cooling down"
	}
	return "armed"
}

// Decision records what the gate did with one classification.
type Decision int

const (
	DecisionIgnored    Decision = iota // Normal reading
	DecisionSent                       // notification dispatched
	DecisionSuppressed                 // Suspicious while cooling down
	DecisionFailed                     // dispatch attempted, notifier failed
)

func (d Decision) String() string {
	switch d {
	case DecisionSent:
		return "sent"
	case DecisionSuppressed:
		return "suppressed"
	case DecisionFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// Notifier delivers an alert message to a human.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// NotifierError wraps a failed dispatch. It is recoverable: callers log it
// and keep running.
type NotifierError struct {
	Err error
}

func (e *NotifierError) Error() string {
	return fmt.Sprintf("alert dispatch failed: %v", e.Err)
}

func (e *NotifierError) Unwrap() error { return e.Err }

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) func(*Gate) {
	return func(g *Gate) {
		g.cooldown = d
	}
}

// WithLogger sets the logger used for dispatch and suppression events.
func WithLogger(logger *slog.Logger) func(*Gate) {
	return func(g *Gate) {
		g.logger = logger
	}
}

// Gate is the per-session alert throttle.
type Gate struct {
	mu        sync.Mutex
	notifier  Notifier
	cooldown  time.Duration
	lastAlert time.Time
	alerted   bool
	logger    *slog.Logger
}

// NewGate returns an armed gate dispatching through notifier.
func NewGate(notifier Notifier, options ...func(*Gate)) *Gate {
	g := Gate{
		notifier: notifier,
		cooldown: DefaultCooldown,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, option := range options {
		option(&g)
	}

	return &g
}

// State reports whether the gate would dispatch a Suspicious reading at now.
func (g *Gate) State(now time.Time) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked(now)
}

// LastAlert returns the time of the last dispatch attempt, if any.
func (g *Gate) LastAlert() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastAlert, g.alerted
}

func (g *Gate) stateLocked(now time.Time) State {
	if !g.alerted || now.Sub(g.lastAlert) > g.cooldown {
		return StateArmed
	}
	return StateCoolingDown
}

// Observe feeds one classification through the gate. The returned error is
// always a *NotifierError and only accompanies DecisionFailed.
func (g *Gate) Observe(ctx context.Context, status drone.Status, sample drone.TelemetrySample, now time.Time) (Decision, error) {
	if status != drone.StatusSuspicious {
		return DecisionIgnored, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stateLocked(now) == StateCoolingDown {
		g.logger.DebugContext(ctx, "alert suppressed",
			slog.Time("lastAlert", g.lastAlert),
			slog.String("rearms", humanize.RelTime(g.lastAlert.Add(g.cooldown), now, "ago", "from now")),
		)
		return DecisionSuppressed, nil
	}

	g.lastAlert = now
	g.alerted = true

	if err := g.notifier.Send(ctx, FormatMessage(sample)); err != nil {
		return DecisionFailed, &NotifierError{Err: err}
	}

	g.logger.InfoContext(ctx, "alert dispatched",
		slog.Float64("speed", sample.Speed),
		slog.Float64("altitude", sample.Altitude),
	)
	return DecisionSent, nil
}

// FormatMessage renders the notification text for a suspicious sample.
func FormatMessage(sample drone.TelemetrySample) string {
	return fmt.Sprintf("🚨 Suspicious Drone Detected!\nSpeed: %.2f m/s\nAltitude: %.2f m\nLocation: %.5f, %.5f (%s)",
		sample.Speed,
		sample.Altitude,
		sample.Latitude,
		sample.Longitude,
		geohash.EncodeWithPrecision(sample.Latitude, sample.Longitude, 7),
	)
}
