// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for audiobook playback:
//  1. [LoginView] : Authenticate against the backend when no token is saved
//  2. [BookListView] : Browse the library and open a book
//  3. [ChapterListView] : Pick a chapter to play
//  4. [PlayerView] : Playback controls, progress bar, and the saved-progress prompt
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via typed message structs.
// Player state flows through the controller's event channel, one snapshot per message, so rendering never touches player internals.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
