package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"drone-activity-classifier/alert"
	"drone-activity-classifier/drone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	sample drone.TelemetrySample
	err    error
}

func (s staticSource) Next(context.Context) (drone.TelemetrySample, error) {
	return s.sample, s.err
}

// scriptedClassifier returns statuses in order and repeats the last one.
type scriptedClassifier struct {
	mu       sync.Mutex
	statuses []drone.Status
	err      error
	calls    int
}

func (c *scriptedClassifier) Classify(drone.TelemetrySample) (drone.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return drone.StatusNormal, c.err
	}
	i := min(c.calls, len(c.statuses)-1)
	c.calls++
	return c.statuses[i], nil
}

type recordingDisplay struct {
	mu       sync.Mutex
	readings []Reading
	err      error
	onShow   func(n int)
}

func (d *recordingDisplay) Show(_ context.Context, r Reading) error {
	d.mu.Lock()
	d.readings = append(d.readings, r)
	n := len(d.readings)
	d.mu.Unlock()
	if d.onShow != nil {
		d.onShow(n)
	}
	return d.err
}

func (d *recordingDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.readings)
}

type countingNotifier struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (n *countingNotifier) Send(context.Context, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return n.err
}

// fakeClock advances by step on every call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

var sample = drone.TelemetrySample{Latitude: 28.6139, Longitude: 77.2090, Altitude: 30, Speed: 12, DistanceToRestricted: 40}

func TestStepPassesReadingToDisplays(t *testing.T) {
	first, second := &recordingDisplay{}, &recordingDisplay{}
	classifier := &scriptedClassifier{statuses: []drone.Status{drone.StatusNormal}}
	gate := alert.NewGate(&countingNotifier{})
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), step: time.Second}

	m := New(staticSource{sample: sample}, classifier, gate,
		WithDisplay(first), WithDisplay(second), WithClock(clock.Now))

	reading, err := m.Step(t.Context())
	require.NoError(t, err)

	assert.Equal(t, drone.StatusNormal, reading.Status)
	assert.Equal(t, sample, reading.Sample)
	assert.Equal(t, "ttnfucj", reading.Geohash)
	assert.Equal(t, "ignored", reading.Alert)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), reading.Timestamp)
	require.Equal(t, 1, first.count())
	require.Equal(t, 1, second.count())
	assert.Equal(t, reading, first.readings[0])
}

func TestStepThrottlesAlerts(t *testing.T) {
	notifier := &countingNotifier{}
	classifier := &scriptedClassifier{statuses: []drone.Status{drone.StatusSuspicious}}
	gate := alert.NewGate(notifier, alert.WithCooldown(300*time.Second))
	clock := &fakeClock{now: time.Unix(0, 0), step: 25 * time.Second}

	m := New(staticSource{sample: sample}, classifier, gate, WithClock(clock.Now))

	var decisions []string
	// t = 0, 25, ..., 325s
	for range 14 {
		reading, err := m.Step(t.Context())
		require.NoError(t, err)
		decisions = append(decisions, reading.Alert)
	}

	assert.Equal(t, 2, notifier.sent)
	assert.Equal(t, "sent", decisions[0])
	assert.Equal(t, "suppressed", decisions[12])
	assert.Equal(t, "sent", decisions[13])
}

func TestStepContinuesAfterNotifierFailure(t *testing.T) {
	notifier := &countingNotifier{err: errors.New("gateway unreachable")}
	display := &recordingDisplay{}
	classifier := &scriptedClassifier{statuses: []drone.Status{drone.StatusSuspicious}}

	m := New(staticSource{sample: sample}, classifier, alert.NewGate(notifier), WithDisplay(display))

	reading, err := m.Step(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "failed", reading.Alert)
	assert.Equal(t, 1, display.count())
}

func TestStepContinuesAfterDisplayFailure(t *testing.T) {
	broken := &recordingDisplay{err: errors.New("client went away")}
	healthy := &recordingDisplay{}
	classifier := &scriptedClassifier{statuses: []drone.Status{drone.StatusNormal}}

	m := New(staticSource{sample: sample}, classifier, alert.NewGate(&countingNotifier{}),
		WithDisplay(broken), WithDisplay(healthy))

	_, err := m.Step(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
}

func TestStepClassificationFailureIsFatal(t *testing.T) {
	display := &recordingDisplay{}
	notifier := &countingNotifier{}
	mismatch := &drone.SchemaMismatchError{Artifact: "scaler", Expected: 10, Got: 8}
	classifier := &scriptedClassifier{err: mismatch}

	m := New(staticSource{sample: sample}, classifier, alert.NewGate(notifier), WithDisplay(display))

	_, err := m.Step(t.Context())
	var target *drone.SchemaMismatchError
	require.ErrorAs(t, err, &target)
	assert.Zero(t, display.count())
	assert.Zero(t, notifier.sent)

	err = m.Run(t.Context())
	require.ErrorAs(t, err, &target)
}

func TestStepSourceFailure(t *testing.T) {
	m := New(staticSource{err: errors.New("link down")}, &scriptedClassifier{statuses: []drone.Status{drone.StatusNormal}},
		alert.NewGate(&countingNotifier{}))

	_, err := m.Step(t.Context())
	require.ErrorContains(t, err, "link down")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	display := &recordingDisplay{onShow: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	classifier := &scriptedClassifier{statuses: []drone.Status{drone.StatusNormal}}

	m := New(staticSource{sample: sample}, classifier, alert.NewGate(&countingNotifier{}),
		WithDisplay(display), WithInterval(time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
	assert.Equal(t, 3, display.count())
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	m := New(staticSource{sample: sample}, &scriptedClassifier{statuses: []drone.Status{drone.StatusNormal}},
		alert.NewGate(&countingNotifier{}), WithInterval(0))

	require.Error(t, m.Run(t.Context()))
}
