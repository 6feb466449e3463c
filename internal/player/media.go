package player

// MediaEventKind enumerates the callbacks a media primitive can emit.
type MediaEventKind int

const (
	// MetadataLoaded fires once the primitive knows the resource duration.
	// Position assignment before this event is undefined behavior on most
	// players, so resume targets are deferred until it arrives.
	MetadataLoaded MediaEventKind = iota
	// TimeUpdate fires periodically while the position advances.
	TimeUpdate
	// Ended fires when playback reaches the end of the resource.
	Ended
	// MediaFailed fires on a primitive error with a coded cause.
	MediaFailed
)

// MediaEvent is a normalized primitive callback.
type MediaEvent struct {
	Kind     MediaEventKind
	Position float64 // Seconds; valid for TimeUpdate
	Duration float64 // Seconds; valid for MetadataLoaded
	Code     ErrorCode
}

// Media abstracts the native playback primitive. The production
// implementation is [MPV]; tests drive a scripted double.
//
// Implementations deliver callbacks on the Events channel and must close it
// when Close is called so consumers can drain and stop.
type Media interface {
	// Load replaces the current source. target is either a URL the primitive
	// fetches itself or a local file path for materialized sources.
	Load(target string) error

	Play() error
	Pause() error

	// SetPosition seeks to an absolute position in seconds. Callers clamp;
	// implementations may assume 0 <= seconds <= duration.
	SetPosition(seconds float64) error

	// SetVolume accepts 0..1.
	SetVolume(v float64) error

	// SetRate accepts a playback speed multiplier.
	SetRate(r float64) error

	Events() <-chan MediaEvent

	Close() error
}
