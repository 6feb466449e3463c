package ui

import (
	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/player"
	"github.com/desertthunder/shelfplay/internal/services"
)

// loginDoneMsg reports the outcome of a login attempt.
type loginDoneMsg struct {
	library services.Library
	err     error
}

// booksFetchedMsg carries the library listing.
type booksFetchedMsg struct {
	books []models.Book
	err   error
}

// chaptersFetchedMsg carries one book's chapter listing.
type chaptersFetchedMsg struct {
	book     models.Book
	chapters []models.Chapter
	err      error
}

// playerReadyMsg reports the constructed player and the saved-progress
// decision for the selected resource.
type playerReadyMsg struct {
	player     *player.Player
	reconciler *player.Reconciler
	affordance player.Affordance
	target     float64
	err        error
}

// playerEventMsg wraps one state snapshot from the player's event stream.
type playerEventMsg player.Event

// playerClosedMsg signals that the player's event stream ended.
type playerClosedMsg struct{}
