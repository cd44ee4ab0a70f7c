// Package state provides thread-safe state management for chitview.
//
// # Overview
//
// This package implements the store where the REST poller and the realtime
// event loop meet the UI. Producers apply printer lists, SDCP payloads,
// upload progress and toasts; the UI reads immutable snapshots.
//
// # Architecture
//
// The package follows a producer-consumer pattern with two producers:
//
//	REST poller:                  Realtime loop:            UI:
//	┌──────────────────┐          ┌──────────────────┐
//	│ SetServerStatus  │          │ ApplyPrinters    │
//	│ SetStorage       │          │ ApplyStatus      │
//	│ RecordPoll*      │─────────→│ ApplyAttributes  │──→ store.Snapshot()
//	└──────────────────┘  (mutex) │ ApplyFileList    │         ↓
//	                              │ AddToast ...     │     render views
//	                              └──────────────────┘
//
// The Store mediates between these goroutines, ensuring:
//   - Atomic updates (no partial/torn reads)
//   - No data races (mutex-protected access)
//   - Immutable snapshots (defensive copying)
//
// # Joining SDCP payloads to printers
//
// The server keys its printer registry by printer ID while SDCP traffic is
// keyed by mainboard ID. Attributes reports carry the board's IP, which
// matches the registry entry's IP; once attributes have arrived for a board
// its status, too, joins the right printer. Before that, only a board ID
// that equals the printer ID can match.
//
// # Offline Detection
//
// RecordPollError increments a consecutive-failure counter that
// RecordPollSuccess resets. Snapshot.IsOffline() reports true at two or
// more straight failures, which the UI renders as an offline badge rather
// than flickering on a single missed poll.
package state
