// Package telemetry records session diagnostics for shelfplay.
//
// The recorder is a pure observer: nothing in playback or reconciliation
// consults it, and swapping in [Noop] changes no observable player behavior.
// It keeps timestamped events in a bounded log and running averages over
// bounded sample queues, and can dump the session as a console report.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/shelfplay/internal/shared"
)

const (
	// maxEntries caps the event log; when exceeded the log is evicted down to
	// keepEntries, dropping the oldest half.
	maxEntries  = 1000
	keepEntries = 500

	// maxSamples bounds each running-average queue.
	maxSamples = 100
)

// Recorder is the telemetry sink. Injected into the player so tests and
// telemetry-disabled configurations can substitute [Noop].
type Recorder interface {
	// Record appends a timestamped event with optional key-value detail.
	Record(event string, kv ...any)

	// TrackLoad records time from source selection to metadata availability.
	TrackLoad(d time.Duration)

	// TrackSeek records a seek's jump distance in seconds.
	TrackSeek(distance float64)

	// TrackLatency records one network round-trip.
	TrackLatency(d time.Duration)

	// Summary returns the running aggregates for the session.
	Summary() Summary

	// Dump writes a human-readable session report.
	Dump(w io.Writer) error
}

// Summary holds the running aggregates for one session.
type Summary struct {
	SessionID    string
	StartedAt    time.Time
	Events       int
	AvgLoad      time.Duration
	AvgLatency   time.Duration
	AvgSeek      float64 // Mean jump distance in seconds
	LoadCount    int
	SeekCount    int
	LatencyCount int
}

// Entry is one recorded event.
type Entry struct {
	At    time.Time
	Event string
	KV    []any
}

// Session is the in-memory Recorder implementation.
type Session struct {
	mu        sync.Mutex
	id        string
	startedAt time.Time
	entries   []Entry
	loads     *samples
	seeks     *samples
	latencies *samples
}

var _ Recorder = (*Session)(nil)

// NewSession creates a session recorder with a fresh session ID.
func NewSession() *Session {
	return &Session{
		id:        shared.GenerateID(),
		startedAt: time.Now(),
		loads:     newSamples(maxSamples),
		seeks:     newSamples(maxSamples),
		latencies: newSamples(maxSamples),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) Record(event string, kv ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{At: time.Now(), Event: event, KV: kv})
	if len(s.entries) > maxEntries {
		kept := make([]Entry, keepEntries)
		copy(kept, s.entries[len(s.entries)-keepEntries:])
		s.entries = kept
	}
}

func (s *Session) TrackLoad(d time.Duration) {
	s.mu.Lock()
	s.loads.add(d.Seconds())
	s.mu.Unlock()
	s.Record("load", "seconds", d.Seconds())
}

func (s *Session) TrackSeek(distance float64) {
	if distance < 0 {
		distance = -distance
	}
	s.mu.Lock()
	s.seeks.add(distance)
	s.mu.Unlock()
	s.Record("seek", "distance", distance)
}

func (s *Session) TrackLatency(d time.Duration) {
	s.mu.Lock()
	s.latencies.add(d.Seconds())
	s.mu.Unlock()
	s.Record("latency", "seconds", d.Seconds())
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		SessionID:    s.id,
		StartedAt:    s.startedAt,
		Events:       len(s.entries),
		AvgLoad:      time.Duration(s.loads.mean() * float64(time.Second)),
		AvgLatency:   time.Duration(s.latencies.mean() * float64(time.Second)),
		AvgSeek:      s.seeks.mean(),
		LoadCount:    s.loads.count,
		SeekCount:    s.seeks.count,
		LatencyCount: s.latencies.count,
	}
}

// Entries returns a copy of the bounded event log.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Dump writes a console report of the session aggregates and recent events.
func (s *Session) Dump(w io.Writer) error {
	summary := s.Summary()

	fmt.Fprintf(w, "Session %s (started %s)\n", summary.SessionID, summary.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Events recorded: %d\n", summary.Events)
	fmt.Fprintf(w, "Avg load time:   %s over %d loads\n", summary.AvgLoad.Round(time.Millisecond), summary.LoadCount)
	fmt.Fprintf(w, "Avg seek jump:   %.1fs over %d seeks\n", summary.AvgSeek, summary.SeekCount)
	fmt.Fprintf(w, "Avg latency:     %s over %d requests\n", summary.AvgLatency.Round(time.Millisecond), summary.LatencyCount)

	for _, entry := range s.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s %v\n", entry.At.Format("15:04:05.000"), entry.Event, entry.KV); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	return nil
}

// DumpFile writes the session report to the file at path.
func (s *Session) DumpFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	return s.Dump(f)
}

// samples is a bounded queue with a running mean.
type samples struct {
	values []float64
	limit  int
	count  int // Total observations, including evicted ones
}

func newSamples(limit int) *samples {
	return &samples{limit: limit}
}

func (q *samples) add(v float64) {
	q.values = append(q.values, v)
	if len(q.values) > q.limit {
		q.values = q.values[1:]
	}
	q.count++
}

func (q *samples) mean() float64 {
	if len(q.values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range q.values {
		sum += v
	}
	return sum / float64(len(q.values))
}

// Noop is a Recorder that discards everything.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) Record(string, ...any)        {}
func (Noop) TrackLoad(time.Duration)      {}
func (Noop) TrackSeek(float64)            {}
func (Noop) TrackLatency(time.Duration)   {}
func (Noop) Summary() Summary             { return Summary{} }
func (Noop) Dump(io.Writer) error         { return nil }
