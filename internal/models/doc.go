// Package models defines domain entities for the shelfplay audiobook client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring backend data
//   - [Book] : Audiobook metadata from the books listing endpoint
//   - [Chapter] : A single chapter of a book
//   - [User] : The authenticated user's profile
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ListeningSession] : One closed playback session in the local history cache
//
// Persistent entities implement the Model interface providing identity,
// timestamps, and validation. The Repository[T] interface defines standard
// CRUD operations for database access.
package models
