// Package state provides thread-safe stores for the data mirrored from the
// download manager backend.
//
// # Overview
//
// Two stores live here:
//
//   - Store: the queue and history item collections, keyed by item id
//   - ServerConfig: app settings, folders, the paused flag, and the shared
//     preset and task lists
//
// Both are written by the socket dispatcher (one reader goroutine per
// connection) and read by the UI on its own tick.
//
// # Concurrency Model
//
//	Producer (socket reader):       Consumer (UI):
//	┌──────────────────┐            ┌──────────────────┐
//	│ decode frame     │            │                  │
//	│      ↓           │            │                  │
//	│ store.Transfer() │───────────→│ store.Snapshot() │
//	│      ↓           │  (mutex)   │      ↓           │
//	│  next frame...   │            │  render UI       │
//	└──────────────────┘            └──────────────────┘
//
// Every operation takes the lock once. Move and Transfer relocate an item
// between collections inside a single critical section, so a reader never
// observes an id in both collections or in neither.
//
// # Collection Semantics
//
//   - Add and Update are the same upsert primitive
//   - Remove of an absent id is a no-op
//   - Count is the number of distinct keys
//   - ReplaceAll swaps both collections for a full snapshot and marks the
//     store as synced; SetConnected(false) clears that mark
//
// Items are cloned on the way in and out (Extras maps included) so callers
// never share mutable state with the store.
//
// The zero Store is ready to use.
package state
