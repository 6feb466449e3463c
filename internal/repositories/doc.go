// Package repositories implements SQLite persistence for the local
// listening-history cache.
//
// The backend remains the source of truth for playback progress; rows here are
// closed playback sessions kept for offline history browsing and export.
//
// Key Implementations:
//   - [ListeningSessionRepository] : Listening-history persistence with resource-scoped queries
package repositories
