package stream

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/telemetry"
)

type stubFetcher struct {
	data    []byte
	err     error
	fetches int
}

func (f *stubFetcher) StreamURL(ref services.ResourceRef, resume bool) string {
	return "http://example.com" + services.StreamPath(ref, resume)
}

func (f *stubFetcher) FetchStream(context.Context, services.ResourceRef, bool) ([]byte, error) {
	f.fetches++
	return f.data, f.err
}

func TestResolver(t *testing.T) {
	ref := services.ResourceRef{Kind: services.KindChapter, ID: "c9"}

	t.Run("Direct Mode", func(t *testing.T) {
		fetcher := &stubFetcher{}
		r := NewResolver(fetcher, false, nil, nil)

		source, err := r.Resolve(context.Background(), ref, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if source.Materialized() {
			t.Error("expected direct source")
		}
		if !strings.HasPrefix(source.Target(), "http://example.com/audioStreaming/") {
			t.Errorf("unexpected target %q", source.Target())
		}
		if fetcher.fetches != 0 {
			t.Error("direct mode must not download the resource")
		}

		// Release on a direct source is a no-op.
		source.Release()
	})

	t.Run("Materialized Mode", func(t *testing.T) {
		fetcher := &stubFetcher{data: []byte("pretend this is audio")}
		session := telemetry.NewSession()
		r := NewResolver(fetcher, true, session, nil)

		source, err := r.Resolve(context.Background(), ref, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !source.Materialized() {
			t.Fatal("expected materialized source")
		}

		data, err := os.ReadFile(source.Target())
		if err != nil {
			t.Fatalf("expected readable temp file: %v", err)
		}
		if string(data) != "pretend this is audio" {
			t.Errorf("unexpected file contents %q", data)
		}

		t.Run("Tracks Latency", func(t *testing.T) {
			summary := session.Summary()
			if summary.LatencyCount != 1 {
				t.Errorf("expected one latency sample, got %d", summary.LatencyCount)
			}
		})

		t.Run("Release Removes File Once", func(t *testing.T) {
			source.Release()
			if _, err := os.Stat(source.Target()); !os.IsNotExist(err) {
				t.Error("expected temp file removed")
			}
			// Second release must not panic or error on the missing file.
			source.Release()
		})
	})

	t.Run("Fetch Failure", func(t *testing.T) {
		fetcher := &stubFetcher{err: fmt.Errorf("401")}
		r := NewResolver(fetcher, true, nil, nil)

		if _, err := r.Resolve(context.Background(), ref, false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("Resume Flag Reaches URL", func(t *testing.T) {
		fetcher := &stubFetcher{}
		r := NewResolver(fetcher, false, nil, nil)
		bookRef := services.ResourceRef{Kind: services.KindBookIntro, ID: "b2"}

		source, err := r.Resolve(context.Background(), bookRef, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(source.Target(), "resume=true") {
			t.Errorf("expected resume flag in %q", source.Target())
		}
	})
}
