package monitor

// Monitor
//
// Each iteration reads one sample, classifies it, passes the label through
// the alert gate and hands the resulting Reading to every display, then
// waits for the next tick. Iterations never overlap. A classification
// failure is fatal: nothing is displayed and Run returns the error, since a
// label from mismatched artifacts must never be shown. Notifier and display
// failures are logged and the loop carries on.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"drone-activity-classifier/alert"
	"drone-activity-classifier/drone"
	"drone-activity-classifier/metrics"

	"github.com/mdobak/go-xerrors"
	"github.com/mmcloughlin/geohash"
)

// DefaultInterval is the wait between two readings.
const DefaultInterval = 25 * time.Second

// Source yields live (or simulated) telemetry.
type Source interface {
	Next(ctx context.Context) (drone.TelemetrySample, error)
}

// Classifier labels a sample.
type Classifier interface {
	Classify(sample drone.TelemetrySample) (drone.Status, error)
}

// Display consumes classified readings.
type Display interface {
	Show(ctx context.Context, reading Reading) error
}

// Reading is one classified sample as handed to displays.
type Reading struct {
	Sample    drone.TelemetrySample `json:"sample"`
	Status    drone.Status          `json:"status"`
	Geohash   string                `json:"geohash"`
	Alert     string                `json:"alert"`
	Timestamp time.Time             `json:"timestamp"`
}

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) func(*Monitor) {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithDisplay adds a display; readings go to displays in registration order.
func WithDisplay(d Display) func(*Monitor) {
	return func(m *Monitor) {
		m.displays = append(m.displays, d)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) func(*Monitor) {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) func(*Monitor) {
	return func(m *Monitor) {
		m.now = now
	}
}

// Monitor owns one monitoring session and its alert state.
type Monitor struct {
	source     Source
	classifier Classifier
	gate       *alert.Gate
	displays   []Display
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Monitor. The gate belongs to this session only.
func New(source Source, classifier Classifier, gate *alert.Gate, options ...func(*Monitor)) *Monitor {
	m := Monitor{
		source:     source,
		classifier: classifier,
		gate:       gate,
		interval:   DefaultInterval,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}

	for _, option := range options {
		option(&m)
	}

	return &m
}

// Run steps once immediately and then on every tick until ctx is done.
// It returns nil on cancellation and the error of a fatal step otherwise.
func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return fmt.Errorf("invalid poll interval %s", m.interval)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.InfoContext(ctx, "monitor started", slog.Duration("interval", m.interval))
	for ctx.Err() == nil {
		if _, err := m.Step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	m.logger.InfoContext(ctx, "monitor stopped")
	return nil
}

// Step performs one read-classify-alert-display iteration.
func (m *Monitor) Step(ctx context.Context) (Reading, error) {
	sample, err := m.source.Next(ctx)
	if err != nil {
		return Reading{}, fmt.Errorf("reading telemetry: %w", err)
	}

	started := time.Now()
	status, err := m.classifier.Classify(sample)
	metrics.InferenceDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ClassificationErrors.Inc()
		err = fmt.Errorf("classifying sample: %w", err)
		m.logger.ErrorContext(ctx, "classification failed, halting", slog.Any("error", xerrors.New(err)))
		return Reading{}, err
	}
	metrics.ClassificationsTotal.WithLabelValues(status.String()).Inc()

	now := m.now()
	reading := Reading{
		Sample:    sample,
		Status:    status,
		Geohash:   geohash.EncodeWithPrecision(sample.Latitude, sample.Longitude, 7),
		Timestamp: now,
	}

	decision, err := m.gate.Observe(ctx, status, sample, now)
	reading.Alert = decision.String()
	if status == drone.StatusSuspicious {
		metrics.AlertsTotal.WithLabelValues(decision.String()).Inc()
	}
	if err != nil {
		var notifierErr *alert.NotifierError
		if !errors.As(err, &notifierErr) {
			return Reading{}, err
		}
		m.logger.ErrorContext(ctx, "failed to send alert", slog.Any("error", xerrors.New(err)))
	}

	for _, d := range m.displays {
		if err := d.Show(ctx, reading); err != nil {
			metrics.DisplayErrors.WithLabelValues(fmt.Sprintf("%T", d)).Inc()
			m.logger.WarnContext(ctx, "display failed", slog.Any("error", err))
		}
	}

	return reading, nil
}
