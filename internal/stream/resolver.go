// Package stream resolves playable sources for the media primitive.
//
// Two modes exist. Direct mode hands the primitive a streaming URL and lets
// it issue its own range requests. Authenticated (materialized) mode fetches
// the whole resource with the bearer token attached and writes it to a temp
// file, because the primitive cannot attach credentials to its own requests.
// Materializing defeats progressive streaming and buffers the entire file
// before playback starts, so it is only acceptable for short resources; a
// backend with short-lived signed URLs would make direct mode universal.
package stream

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
	"github.com/desertthunder/shelfplay/internal/telemetry"
)

// Fetcher is the subset of the backend client the resolver needs.
type Fetcher interface {
	StreamURL(ref services.ResourceRef, resume bool) string
	FetchStream(ctx context.Context, ref services.ResourceRef, resume bool) ([]byte, error)
}

// Source is a resolved playable target. Release frees any materialized file;
// it is safe to call more than once and must be called on every exit path.
type Source struct {
	target  string
	path    string // Non-empty only for materialized sources
	release sync.Once
	logger  *log.Logger
}

// Target returns the URL or file path to hand to the media primitive.
func (s *Source) Target() string { return s.target }

// Materialized reports whether the source is backed by a local temp file.
func (s *Source) Materialized() bool { return s.path != "" }

// Release removes the materialized file, exactly once.
func (s *Source) Release() {
	s.release.Do(func() {
		if s.path == "" {
			return
		}
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove materialized source", "path", s.path, "err", err)
		}
	})
}

// Resolver produces sources for the playback controller.
type Resolver struct {
	fetcher      Fetcher
	authenticate bool
	recorder     telemetry.Recorder
	logger       *log.Logger
}

// NewResolver creates a Resolver. When authenticate is true every resource is
// materialized; otherwise the primitive streams the URL directly.
func NewResolver(fetcher Fetcher, authenticate bool, recorder telemetry.Recorder, logger *log.Logger) *Resolver {
	if recorder == nil {
		recorder = telemetry.Noop{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		fetcher:      fetcher,
		authenticate: authenticate,
		recorder:     recorder,
		logger:       logger,
	}
}

// Resolve produces a playable source for the resource. The resume flag is
// forwarded to the backend, which uses it on the book endpoint.
func (r *Resolver) Resolve(ctx context.Context, ref services.ResourceRef, resume bool) (*Source, error) {
	if !r.authenticate {
		return &Source{target: r.fetcher.StreamURL(ref, resume), logger: r.logger}, nil
	}

	start := time.Now()
	data, err := r.fetcher.FetchStream(ctx, ref, resume)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stream for %s: %w", ref, err)
	}
	r.recorder.TrackLatency(time.Since(start))

	f, err := os.CreateTemp("", "shelfplay-*.audio")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write materialized source: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close materialized source: %w", err)
	}

	r.logger.Debug("materialized source", "resource", ref.String(), "bytes", len(data), "path", f.Name())
	r.recorder.Record("materialize", "resource", ref.String(), "bytes", len(data))

	return &Source{target: f.Name(), path: f.Name(), logger: r.logger}, nil
}
