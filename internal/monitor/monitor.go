// Package monitor drives the capture-match-render loop: it owns the
// streaming state machine, samples frames on a self-paced cadence, keeps the
// most recent detection list and re-evaluates authorization whenever the
// detections or the active room change.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"sync"
	"time"

	"github.com/dormwatch/dormwatch/internal/authz"
	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/detect"
	"github.com/dormwatch/dormwatch/internal/overlay"
	"github.com/dormwatch/dormwatch/internal/rooms"
)

// ErrInvalidState rejects an operation the streaming state machine does not
// allow (e.g. starting monitoring without a live camera). No side effects.
var ErrInvalidState = errors.New("invalid monitor state")

// State is the streaming state.
type State string

const (
	StateIdle       State = "idle"
	StateLive       State = "camera-live"
	StateMonitoring State = "monitoring"
)

const (
	// DefaultInterval is the pause between the completion of one sample and
	// the start of the next.
	DefaultInterval = 500 * time.Millisecond

	// DefaultJPEGQuality is the lossy encoding quality for sampled frames.
	DefaultJPEGQuality = 80
)

// Matcher is the slice of the matching-service client the sampler needs.
type Matcher interface {
	ProcessFrame(ctx context.Context, jpegData []byte) ([]detect.Detection, error)
}

// RoomFinder resolves the active room id against the directory on every
// evaluation, so edits and deletions elsewhere are picked up before the next
// authorization pass.
type RoomFinder interface {
	Get(id string) (rooms.Room, error)
}

// ThreatEvent describes a threat-flag transition.
type ThreatEvent struct {
	Raised    bool      `json:"raised"`
	RoomID    string    `json:"room_id"`
	FaceCount int       `json:"face_count"`
	At        time.Time `json:"at"`
}

// Status is the externally visible monitor state, evaluated fresh on read.
type Status struct {
	State               State            `json:"state"`
	ActiveRoom          *rooms.Room      `json:"active_room,omitempty"`
	Native              capture.Size     `json:"native_size"`
	Display             capture.Size     `json:"display_size"`
	Assessment          authz.Assessment `json:"assessment"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	LastError           string           `json:"last_error,omitempty"`
	LastSampleAt        time.Time        `json:"last_sample_at"`
}

// Options configures a Monitor. Zero values fall back to defaults.
type Options struct {
	Interval    time.Duration
	JPEGQuality int
	Clock       Clock

	// OnUpdate fires after every committed sample and on explicit state
	// changes. OnThreat fires only on threat-flag transitions.
	OnUpdate func(Status)
	OnThreat func(ThreatEvent)
}

// Monitor is the loop controller. All mutation goes through its methods;
// the sampling goroutine is the only sampler, so at most one matching call
// is in flight system-wide.
type Monitor struct {
	source   *capture.Source
	matcher  Matcher
	rooms    RoomFinder
	clock    Clock
	interval time.Duration
	quality  int
	onUpdate func(Status)
	onThreat func(ThreatEvent)

	mu           sync.Mutex
	state        State
	gen          int
	cancel       context.CancelFunc
	detections   []detect.Detection
	activeRoomID string
	threat       bool
	failures     int
	lastErr      error
	lastSampleAt time.Time
}

// New creates a Monitor in the idle state.
func New(source *capture.Source, m Matcher, finder RoomFinder, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	return &Monitor{
		source:   source,
		matcher:  m,
		rooms:    finder,
		clock:    opts.Clock,
		interval: opts.Interval,
		quality:  opts.JPEGQuality,
		onUpdate: opts.OnUpdate,
		onThreat: opts.OnThreat,
		state:    StateIdle,
	}
}

// StartCamera acquires the capture source: idle -> camera-live. Acquiring
// while already live is a no-op.
func (m *Monitor) StartCamera() error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.source.Acquire(); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = StateLive
	st, ev := m.commitLocked()
	m.mu.Unlock()

	m.notify(st, ev)
	return nil
}

// StopCamera releases the capture source: any live state -> idle. Forces
// monitoring to stop and clears all per-frame data. Idempotent.
func (m *Monitor) StopCamera() {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = StateIdle
	m.detections = nil
	m.failures = 0
	m.lastErr = nil
	st, ev := m.commitLocked()
	m.mu.Unlock()

	m.source.Release()
	m.notify(st, ev)
}

// StartMonitoring begins the sampling cadence: camera-live -> monitoring.
// The first sample fires immediately; each following one starts a fixed
// interval after the previous sample completed, so the loop self-paces and
// never overlaps requests.
func (m *Monitor) StartMonitoring() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateIdle:
		return fmt.Errorf("start monitoring: %w: camera is not live", ErrInvalidState)
	case StateMonitoring:
		return fmt.Errorf("start monitoring: %w: already monitoring", ErrInvalidState)
	}

	m.state = StateMonitoring
	m.gen++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.loop(ctx, m.gen)
	return nil
}

// StopMonitoring stops the sampling cadence: monitoring -> camera-live. The
// pending timer is cancelled; an in-flight sample may finish but its result
// is discarded because the generation moved on.
func (m *Monitor) StopMonitoring() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateMonitoring {
		return fmt.Errorf("stop monitoring: %w: not monitoring", ErrInvalidState)
	}
	m.state = StateLive
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return nil
}

// SetActiveRoom selects the room to monitor, or clears the selection when
// id is empty. Activating a room that does not exist is rejected with no
// side effect.
func (m *Monitor) SetActiveRoom(id string) error {
	if id != "" {
		if _, err := m.rooms.Get(id); err != nil {
			return fmt.Errorf("activate room: %w", err)
		}
	}

	m.mu.Lock()
	m.activeRoomID = id
	st, ev := m.commitLocked()
	m.mu.Unlock()

	m.notify(st, ev)
	return nil
}

// SetDisplaySize records the displayed resolution reported by the UI layer.
func (m *Monitor) SetDisplaySize(sz capture.Size) {
	m.source.SetDisplaySize(sz)

	m.mu.Lock()
	st := m.statusLocked()
	m.mu.Unlock()
	m.notify(st, nil)
}

// Status evaluates and returns the current monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Overlay paints the current detections onto a fresh image scaled from
// native to displayed resolution. Fails while the camera is idle.
func (m *Monitor) Overlay() (image.Image, error) {
	m.mu.Lock()
	st := m.statusLocked()
	m.mu.Unlock()

	if st.State == StateIdle {
		return nil, fmt.Errorf("overlay: %w: camera is not live", ErrInvalidState)
	}
	return overlay.Render(st.Assessment.Faces, st.Native, st.Display), nil
}

// loop is the self-paced sampling cadence. It is the sole sampler: a tick
// never starts while a sample is outstanding, so a slow matching service
// slows the loop down instead of building a backlog.
func (m *Monitor) loop(ctx context.Context, gen int) {
	for {
		m.runSample(gen)
		if !m.clock.Sleep(ctx, m.interval) {
			return
		}
	}
}

// runSample rasterizes the current frame, submits it to the matching
// service and commits the result if the controller is still in the same
// monitoring generation. The network call deliberately does not use the
// loop context: cancellation is cooperative, a late result is discarded
// rather than aborted mid-transit.
func (m *Monitor) runSample(gen int) {
	frame, err := m.source.Frame()
	if err != nil {
		m.recordFailure(gen, fmt.Errorf("read frame: %w", err))
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: m.quality}); err != nil {
		m.recordFailure(gen, fmt.Errorf("encode frame: %w", err))
		return
	}

	dets, err := m.matcher.ProcessFrame(context.Background(), buf.Bytes())
	if err != nil {
		m.recordFailure(gen, err)
		return
	}

	m.mu.Lock()
	if m.gen != gen || m.state != StateMonitoring {
		// Stopped while the sample was in flight; a stale frame must not
		// reappear after the user turned monitoring off.
		m.mu.Unlock()
		return
	}
	m.detections = dets
	m.failures = 0
	m.lastErr = nil
	m.lastSampleAt = time.Now()
	st, ev := m.commitLocked()
	m.mu.Unlock()

	m.notify(st, ev)
}

// recordFailure notes a failed tick. The detection store is left untouched:
// stale-but-valid results beat a blank display that would be
// indistinguishable from "room is empty".
func (m *Monitor) recordFailure(gen int, err error) {
	m.mu.Lock()
	if m.gen != gen || m.state != StateMonitoring {
		m.mu.Unlock()
		return
	}
	m.failures++
	m.lastErr = err
	failures := m.failures
	st := m.statusLocked()
	m.mu.Unlock()

	if failures == 1 {
		log.Printf("monitor: sample failed, keeping previous results: %v", err)
	}
	m.notify(st, nil)
}

// activeRoomLocked resolves the active room, clearing the selection when
// the room was deleted elsewhere since the last evaluation.
func (m *Monitor) activeRoomLocked() *rooms.Room {
	if m.activeRoomID == "" {
		return nil
	}
	room, err := m.rooms.Get(m.activeRoomID)
	if err != nil {
		m.activeRoomID = ""
		return nil
	}
	return &room
}

func (m *Monitor) statusLocked() Status {
	room := m.activeRoomLocked()
	st := Status{
		State:               m.state,
		ActiveRoom:          room,
		Native:              m.source.NativeSize(),
		Display:             m.source.DisplaySize(),
		Assessment:          authz.Evaluate(m.detections, room),
		ConsecutiveFailures: m.failures,
		LastSampleAt:        m.lastSampleAt,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// commitLocked re-evaluates and reports a threat transition if the flag
// changed. The flag itself is a view over detections and active room; only
// its previous value is remembered, for edge detection.
func (m *Monitor) commitLocked() (Status, *ThreatEvent) {
	st := m.statusLocked()
	if st.Assessment.Threat == m.threat {
		return st, nil
	}
	m.threat = st.Assessment.Threat

	ev := &ThreatEvent{
		Raised:    st.Assessment.Threat,
		FaceCount: len(st.Assessment.Faces),
		At:        time.Now(),
	}
	if st.ActiveRoom != nil {
		ev.RoomID = st.ActiveRoom.ID
	}
	return st, ev
}

func (m *Monitor) notify(st Status, ev *ThreatEvent) {
	if m.onUpdate != nil {
		m.onUpdate(st)
	}
	if ev != nil && m.onThreat != nil {
		m.onThreat(*ev)
	}
}
