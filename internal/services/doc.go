// Package services implements the HTTP client for the shelfplay backend.
//
// The backend exposes authentication (/user), the book library
// (/booksManagement), and audio streaming plus progress persistence
// (/audioStreaming). All authenticated calls carry a bearer token attached by
// an [oauth2.Transport]; the token itself is persisted by shared.TokenStore.
//
// A media resource is identified by a [ResourceRef], a (kind, id) pair where
// kind is either the book introduction or a chapter. Streaming and progress
// endpoints differ by kind but share one contract, so every method takes the
// ref rather than a raw id.
package services
