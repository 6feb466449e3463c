package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"golang.org/x/time/rate"
)

// Affordance is the single action offered on top of saved progress. Exactly
// one is ever presented for a record.
type Affordance int

const (
	AffordanceNone Affordance = iota
	AffordanceResume
	AffordanceStartOver
)

func (a Affordance) String() string {
	switch a {
	case AffordanceResume:
		return "resume"
	case AffordanceStartOver:
		return "start_over"
	default:
		return "none"
	}
}

// Decide maps a progress record to the affordance to present, plus the resume
// target in seconds when the affordance is resume.
//
// Strict priority: a finished record always wins over a nonzero position, so
// a record that is both finished and mid-way offers start-over, not resume.
func Decide(record *services.ProgressRecord) (Affordance, float64) {
	if record == nil {
		return AffordanceNone, 0
	}

	if record.Finished() {
		return AffordanceStartOver, 0
	}

	if record.Position > 0 && record.CompletionPercentage < 100 {
		return AffordanceResume, float64(record.Position)
	}

	return AffordanceNone, 0
}

// Reconciler fetches saved progress once per session and owns the push path
// back to the backend.
type Reconciler struct {
	library services.Library
	ref     services.ResourceRef
	logger  *log.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	record *services.ProgressRecord
	wg     sync.WaitGroup
}

// NewReconciler creates a Reconciler for one resource. Pushes beyond one per
// second are dropped; scrub-seeking generates bursts and the backend is
// last-write-wins, so dropped intermediates are harmless.
func NewReconciler(library services.Library, ref services.ResourceRef, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{
		library: library,
		ref:     ref,
		logger:  logger.With("resource", ref.String()),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Fetch retrieves the saved record and returns the affordance decision. The
// record is fetched once; later calls reuse it. A backend with no saved
// progress yields AffordanceNone.
func (r *Reconciler) Fetch(ctx context.Context) (Affordance, float64, error) {
	r.mu.Lock()
	record := r.record
	r.mu.Unlock()

	if record == nil {
		fetched, err := r.library.Progress(ctx, r.ref)
		if err != nil {
			if errors.Is(err, shared.ErrNoProgress) {
				return AffordanceNone, 0, nil
			}
			return AffordanceNone, 0, err
		}

		r.mu.Lock()
		r.record = fetched
		record = fetched
		r.mu.Unlock()
	}

	affordance, target := Decide(record)
	return affordance, target, nil
}

// Record returns the fetched record, nil before Fetch succeeds.
func (r *Reconciler) Record() *services.ProgressRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record
}

// Push writes position/status/speed to the backend, fire-and-forget. The
// call returns immediately; network failures are logged and swallowed, never
// retried, and never surface to the caller. Bursts beyond the limiter are
// dropped; scrub-seeks generate them regardless of play state.
func (r *Reconciler) Push(update services.ProgressUpdate) {
	if !r.limiter.Allow() {
		return
	}
	r.send(update)
}

// PushFinal writes a terminal update (pause, completion), bypassing the
// limiter so the last position always lands.
func (r *Reconciler) PushFinal(update services.ProgressUpdate) {
	r.send(update)
}

func (r *Reconciler) send(update services.ProgressUpdate) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.library.PushProgress(ctx, r.ref, update); err != nil {
			r.logger.Warn("progress push failed", "status", update.Status, "position", update.Position, "err", err)
		}
	}()
}

// Wait blocks until in-flight pushes finish. Used by shutdown paths and tests.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
