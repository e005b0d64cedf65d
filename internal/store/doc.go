// Package store implements a single-process, in-memory key–value store whose
// entries live for a limited time.
//
// Goals for this package:
//   - Lazy expiry on read: Get treats a stale entry as absent but never removes it
//   - Eager reclamation: a debounced, single-flight sweep removes stale entries
//     off the caller's goroutine
//   - Optional forced sweeps so a quiescent store still reclaims memory
//   - Publish every mutation and sweep to an injected events.Emitter
//   - Own and cleanly stop long-lived goroutines (no leaks on shutdown)
package store
