package player

import (
	"errors"
	"strings"

	"github.com/desertthunder/shelfplay/internal/shared"
)

// ErrorCode classifies media primitive failures.
type ErrorCode int

const (
	CodeAborted ErrorCode = iota + 1
	CodeNetwork
	CodeDecode
	CodeUnsupported
)

func (c ErrorCode) String() string {
	switch c {
	case CodeAborted:
		return "aborted"
	case CodeNetwork:
		return "network"
	case CodeDecode:
		return "decode"
	case CodeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Message returns the user-facing string for a media error. Raw errors and
// stack traces never reach the UI; this table is the whole vocabulary.
func (c ErrorCode) Message() string {
	switch c {
	case CodeAborted:
		return "Playback was aborted."
	case CodeNetwork:
		return "A network error interrupted playback."
	case CodeDecode:
		return "The audio could not be decoded."
	case CodeUnsupported:
		return "This audio format is not supported."
	default:
		return "Playback failed."
	}
}

// playFailureMessage reduces a play() rejection to one of three user-facing
// messages: blocked, unsupported format, or a generic failure.
func playFailureMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrPlaybackBlocked):
		return "Playback was blocked. Press play to try again."
	case errors.Is(err, shared.ErrNoSource), containsFormatHint(err):
		return "This audio format is not supported."
	default:
		return "Could not start playback."
	}
}

func containsFormatHint(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "format") || strings.Contains(msg, "codec")
}
