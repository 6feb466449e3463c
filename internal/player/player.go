package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/desertthunder/shelfplay/internal/stream"
	"github.com/desertthunder/shelfplay/internal/telemetry"
)

// Status is the playback controller's normalized state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusEnded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Rates is the fixed set of accepted playback speed multipliers.
var Rates = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// State is a snapshot of the controller's transient playback state.
type State struct {
	Status   Status
	Position float64
	Duration float64
	Volume   float64
	Rate     float64
	Message  string // User-facing error text when Status is errored
}

// Event notifies the UI of a state change. Sends never block; a slow consumer
// just misses intermediate snapshots.
type Event struct {
	State State
}

// Options configures a Player. Media and Resolver are required; everything
// else has a usable default.
type Options struct {
	Media        Media
	Resolver     *stream.Resolver
	Reconciler   *Reconciler
	Recorder     telemetry.Recorder
	Logger       *log.Logger
	Ref          services.ResourceRef
	Title        string
	SkipSeconds  float64
	PushInterval time.Duration
	Volume       float64
	Rate         float64
}

// Player is the playback controller. It owns the media primitive, translates
// user intents into primitive operations, and emits normalized state.
//
// There is exactly one logical writer: public methods and the primitive's
// event stream both funnel through the mutex, and the only timer is the
// periodic progress-push ticker.
type Player struct {
	mu sync.Mutex

	media      Media
	resolver   *stream.Resolver
	reconciler *Reconciler
	recorder   telemetry.Recorder
	logger     *log.Logger
	ref        services.ResourceRef
	title      string

	status   Status
	position float64
	duration float64
	volume   float64
	rate     float64
	message  string

	skip         float64
	pushInterval time.Duration

	source     *stream.Source
	tickerStop chan struct{}

	// loadStart is the cross-callback load timestamp. An instance field, not
	// global state: each player times its own loads.
	loadStart time.Time

	// pendingResume defers the resume-target assignment until the primitive
	// reports metadata. Assigning position before duration is known is
	// undefined behavior on most players.
	pendingResume    float64
	hasPendingResume bool
	autoplay         bool

	startedAt     time.Time
	startPosition float64

	events chan Event
	done   chan struct{}
	closed bool
}

// New creates a Player and starts consuming the primitive's event stream.
func New(opts Options) *Player {
	if opts.Recorder == nil {
		opts.Recorder = telemetry.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.SkipSeconds <= 0 {
		opts.SkipSeconds = 30
	}
	if opts.PushInterval <= 0 {
		opts.PushInterval = 30 * time.Second
	}
	if opts.Volume <= 0 || opts.Volume > 1 {
		opts.Volume = 1
	}
	if !validRate(opts.Rate) {
		opts.Rate = 1
	}

	p := &Player{
		media:        opts.Media,
		resolver:     opts.Resolver,
		reconciler:   opts.Reconciler,
		recorder:     opts.Recorder,
		logger:       opts.Logger.With("resource", opts.Ref.String()),
		ref:          opts.Ref,
		title:        opts.Title,
		status:       StatusIdle,
		volume:       opts.Volume,
		rate:         opts.Rate,
		skip:         opts.SkipSeconds,
		pushInterval: opts.PushInterval,
		startedAt:    time.Now().UTC(),
		events:       make(chan Event, 50),
		done:         make(chan struct{}),
	}

	go p.consume()

	return p
}

func validRate(r float64) bool {
	for _, accepted := range Rates {
		if r == accepted {
			return true
		}
	}
	return false
}

// Events returns the state-change stream for UI consumption.
func (p *Player) Events() <-chan Event { return p.events }

// State returns a snapshot of the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() State {
	return State{
		Status:   p.status,
		Position: p.position,
		Duration: p.duration,
		Volume:   p.volume,
		Rate:     p.rate,
		Message:  p.message,
	}
}

// emitLocked sends a snapshot without blocking. Callers hold the mutex.
// Close sets closed before closing the channel, so the guard here keeps
// late callers from sending on a closed channel.
func (p *Player) emitLocked() {
	if p.closed {
		return
	}
	select {
	case p.events <- Event{State: p.snapshotLocked()}:
	default:
	}
}

// Open resolves the source for the player's resource and loads it into the
// primitive. A previously loaded source is released first.
func (p *Player) Open(ctx context.Context, resume bool) error {
	source, err := p.resolver.Resolve(ctx, p.ref, resume)
	if err != nil {
		p.mu.Lock()
		p.status = StatusErrored
		p.message = "Could not load the audio source."
		p.emitLocked()
		p.mu.Unlock()
		p.logger.Error("source resolution failed", "err", err)
		return fmt.Errorf("%w: %v", shared.ErrNoSource, err)
	}

	p.mu.Lock()
	if p.source != nil {
		p.source.Release()
	}
	p.source = source
	p.status = StatusLoading
	p.message = ""
	p.loadStart = time.Now()
	p.emitLocked()
	p.mu.Unlock()

	if err := p.media.Load(source.Target()); err != nil {
		p.mu.Lock()
		p.status = StatusErrored
		p.message = playFailureMessage(err)
		p.emitLocked()
		p.mu.Unlock()
		p.logger.Error("media load failed", "err", err)
		return err
	}

	if err := p.media.SetVolume(p.volume); err != nil {
		p.logger.Warn("failed to set initial volume", "err", err)
	}
	if err := p.media.SetRate(p.rate); err != nil {
		p.logger.Warn("failed to set initial rate", "err", err)
	}

	p.recorder.Record("open", "resume", resume)
	return nil
}

// Play starts or resumes playback and starts the periodic progress-push
// timer. Repeated play/pause cycles reuse one timer slot; a second timer is
// never started while one is running.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.status == StatusErrored {
		p.mu.Unlock()
		return fmt.Errorf("%w: playback blocked after error", shared.ErrPlaybackBlocked)
	}
	p.mu.Unlock()

	if err := p.media.Play(); err != nil {
		msg := playFailureMessage(err)
		p.mu.Lock()
		p.message = msg
		p.emitLocked()
		p.mu.Unlock()
		p.logger.Error("play failed", "err", err)
		return fmt.Errorf("%s: %w", msg, err)
	}

	p.mu.Lock()
	p.status = StatusPlaying
	p.message = ""
	p.startTimerLocked()
	p.emitLocked()
	p.mu.Unlock()

	p.recorder.Record("play")
	return nil
}

// Pause stops playback, cancels the push timer, and pushes a final position
// update tagged paused.
func (p *Player) Pause() error {
	if err := p.media.Pause(); err != nil {
		p.logger.Error("pause failed", "err", err)
		return err
	}

	p.mu.Lock()
	p.status = StatusPaused
	p.stopTimerLocked()
	position := p.position
	rate := p.rate
	p.emitLocked()
	p.mu.Unlock()

	p.push(position, "paused", rate, true)
	p.recorder.Record("pause", "position", position)
	return nil
}

// Toggle plays when paused and pauses when playing.
func (p *Player) Toggle() error {
	p.mu.Lock()
	status := p.status
	p.mu.Unlock()

	if status == StatusPlaying {
		return p.Pause()
	}
	return p.Play()
}

// Seek moves to target seconds, clamped to [0, duration]. The push is tagged
// with the current play/pause status and the jump distance goes to telemetry.
func (p *Player) Seek(target float64) error {
	p.mu.Lock()
	clamped := clamp(target, 0, p.duration)
	distance := clamped - p.position
	statusTag := "paused"
	if p.status == StatusPlaying {
		statusTag = "playing"
	}
	rate := p.rate
	p.mu.Unlock()

	if err := p.media.SetPosition(clamped); err != nil {
		p.logger.Error("seek failed", "target", clamped, "err", err)
		return err
	}

	p.mu.Lock()
	p.position = clamped
	p.emitLocked()
	p.mu.Unlock()

	p.recorder.TrackSeek(distance)
	p.push(clamped, statusTag, rate, false)
	return nil
}

// SkipForward seeks ahead by the configured skip interval.
func (p *Player) SkipForward() error {
	p.mu.Lock()
	target := p.position + p.skip
	p.mu.Unlock()
	return p.Seek(target)
}

// SkipBackward seeks back by the configured skip interval.
func (p *Player) SkipBackward() error {
	p.mu.Lock()
	target := p.position - p.skip
	p.mu.Unlock()
	return p.Seek(target)
}

// SetVolume sets the primitive volume, clamped to [0, 1]. No network side
// effect.
func (p *Player) SetVolume(v float64) error {
	v = clamp(v, 0, 1)
	if err := p.media.SetVolume(v); err != nil {
		return err
	}

	p.mu.Lock()
	p.volume = v
	p.emitLocked()
	p.mu.Unlock()
	return nil
}

// SetRate sets the playback speed. Only the fixed discrete rate set is
// accepted.
func (p *Player) SetRate(r float64) error {
	if !validRate(r) {
		return fmt.Errorf("%w: rate %v not in %v", shared.ErrInvalidArgument, r, Rates)
	}
	if err := p.media.SetRate(r); err != nil {
		return err
	}

	p.mu.Lock()
	p.rate = r
	p.emitLocked()
	p.mu.Unlock()
	return nil
}

// CycleRate advances to the next rate in the fixed set, wrapping around.
func (p *Player) CycleRate() error {
	p.mu.Lock()
	current := p.rate
	p.mu.Unlock()

	for i, r := range Rates {
		if r == current {
			return p.SetRate(Rates[(i+1)%len(Rates)])
		}
	}
	return p.SetRate(1)
}

// Bookmark pushes the current position tagged bookmark.
func (p *Player) Bookmark() {
	p.mu.Lock()
	position := p.position
	rate := p.rate
	p.mu.Unlock()

	p.push(position, "bookmark", rate, false)
	p.recorder.Record("bookmark", "position", position)
}

// Resume re-resolves the source with the resume flag and starts playback at
// target once the primitive reports metadata. The target assignment is
// deferred until metadata-loaded fires.
func (p *Player) Resume(ctx context.Context, target float64) error {
	p.mu.Lock()
	p.pendingResume = target
	p.hasPendingResume = true
	p.autoplay = true
	p.startPosition = target
	p.mu.Unlock()

	if err := p.Open(ctx, true); err != nil {
		p.mu.Lock()
		p.hasPendingResume = false
		p.autoplay = false
		p.mu.Unlock()
		return err
	}

	p.recorder.Record("resume", "target", target)
	return nil
}

// StartOver loads the source fresh and starts playback from zero without
// waiting for any server round trip.
func (p *Player) StartOver(ctx context.Context) error {
	p.mu.Lock()
	p.pendingResume = 0
	p.hasPendingResume = false
	p.autoplay = true
	p.startPosition = 0
	p.mu.Unlock()

	if err := p.Open(ctx, false); err != nil {
		p.mu.Lock()
		p.autoplay = false
		p.mu.Unlock()
		return err
	}

	p.recorder.Record("start_over")
	return nil
}

// push hands an update to the reconciler, fire-and-forget. Final updates
// (pause, completion) skip the rate limiter. A nil reconciler (headless
// preview, tests) drops the update.
func (p *Player) push(position float64, status string, rate float64, final bool) {
	if p.reconciler == nil {
		return
	}
	update := services.ProgressUpdate{
		Position:      int(position),
		Status:        status,
		PlaybackSpeed: rate,
	}
	if final {
		p.reconciler.PushFinal(update)
		return
	}
	p.reconciler.Push(update)
}

// consume drains the primitive's event stream until it closes.
func (p *Player) consume() {
	defer close(p.done)

	for ev := range p.media.Events() {
		switch ev.Kind {
		case MetadataLoaded:
			p.onMetadata(ev.Duration)
		case TimeUpdate:
			p.mu.Lock()
			p.position = ev.Position
			p.emitLocked()
			p.mu.Unlock()
		case Ended:
			p.onEnded()
		case MediaFailed:
			p.onMediaError(ev.Code)
		}
	}
}

func (p *Player) onMetadata(duration float64) {
	p.mu.Lock()
	p.duration = duration
	if !p.loadStart.IsZero() {
		p.recorder.TrackLoad(time.Since(p.loadStart))
		p.loadStart = time.Time{}
	}
	applyResume := p.hasPendingResume
	target := clamp(p.pendingResume, 0, duration)
	p.hasPendingResume = false
	autoplay := p.autoplay
	p.autoplay = false
	p.emitLocked()
	p.mu.Unlock()

	if applyResume {
		if err := p.media.SetPosition(target); err != nil {
			p.logger.Error("resume position assignment failed", "target", target, "err", err)
		} else {
			p.mu.Lock()
			p.position = target
			p.mu.Unlock()
		}
	}

	if autoplay {
		if err := p.Play(); err != nil {
			p.logger.Error("autoplay failed", "err", err)
		}
	}
}

func (p *Player) onEnded() {
	p.mu.Lock()
	p.stopTimerLocked()
	p.status = StatusEnded
	if p.duration > 0 {
		p.position = p.duration
	}
	position := p.position
	rate := p.rate
	p.emitLocked()
	p.mu.Unlock()

	p.push(position, "completed", rate, true)
	p.recorder.Record("ended", "position", position)
}

func (p *Player) onMediaError(code ErrorCode) {
	p.mu.Lock()
	p.stopTimerLocked()
	p.status = StatusErrored
	p.message = code.Message()
	p.emitLocked()
	p.mu.Unlock()

	p.logger.Error("media error", "code", code.String())
	p.recorder.Record("media_error", "code", code.String())
}

// startTimerLocked starts the periodic push timer if none is running.
func (p *Player) startTimerLocked() {
	if p.tickerStop != nil {
		return
	}

	stop := make(chan struct{})
	p.tickerStop = stop

	go func() {
		ticker := time.NewTicker(p.pushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.mu.Lock()
				if p.status != StatusPlaying {
					p.mu.Unlock()
					continue
				}
				position := p.position
				rate := p.rate
				p.mu.Unlock()
				p.push(position, "playing", rate, false)
			case <-stop:
				return
			}
		}
	}()
}

// stopTimerLocked cancels the push timer if one is running.
func (p *Player) stopTimerLocked() {
	if p.tickerStop == nil {
		return
	}
	close(p.tickerStop)
	p.tickerStop = nil
}

// timerRunning reports whether the push timer is active.
func (p *Player) timerRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tickerStop != nil
}

// SessionRecord builds the listening-history row for this playback session.
func (p *Player) SessionRecord() *models.ListeningSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	session := models.NewListeningSession(p.ref.Kind.String(), p.ref.ID, p.title)
	session.StartPosition = p.startPosition
	session.EndPosition = p.position
	session.Duration = p.duration
	session.PlaybackSpeed = p.rate
	session.Completed = p.status == StatusEnded
	session.StartedAt = p.startedAt
	session.EndedAt = time.Now().UTC()
	return session
}

// Close tears the player down: stops the push timer, closes the primitive,
// releases any materialized source, and closes the event stream so ranging
// consumers terminate. Safe to call on every exit path and more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.stopTimerLocked()
	source := p.source
	p.mu.Unlock()

	err := p.media.Close()
	<-p.done
	close(p.events)

	if source != nil {
		source.Release()
	}

	if p.reconciler != nil {
		p.reconciler.Wait()
	}

	p.recorder.Record("close")
	return err
}

func clamp(v, lo, hi float64) float64 {
	if hi > 0 && v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
