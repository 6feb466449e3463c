// Package player implements playback control for shelfplay.
//
// The package wraps an abstract media primitive ([Media], implemented over
// mpv's JSON IPC protocol) and layers three concerns on top of it:
//
//   - [Player] : the playback controller. Owns the primitive, translates user
//     intents (play, pause, seek, skip, volume, rate) into primitive
//     operations, and normalizes primitive callbacks into a single status
//     machine: idle → loading → {playing ⇄ paused} → ended, with errored
//     reachable from loading or playing.
//   - [Reconciler] / [Decide] : progress reconciliation. Fetches the saved
//     progress record once per session, decides which affordance (resume,
//     start over, or neither) to offer, and keeps the backend apprised of
//     position through fire-and-forget pushes while playing.
//   - error reduction: primitive and network failures collapse to a small
//     fixed set of user-facing messages; raw errors only reach the log.
//
// Progress pushes never block or delay playback: each push runs in its own
// goroutine, failures are logged and swallowed, and a rate limiter drops
// bursts generated by scrub-seeking.
package player
