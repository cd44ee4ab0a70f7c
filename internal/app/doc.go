// Package app is the composition root for chitview. Run loads config and
// prefs, builds the REST and realtime clients, starts the background loops
// and hands control to the UI.
//
// Two goroutines feed the shared state.Store while the UI runs:
//
//   - the REST poller fetches /status and /usb-gadget/storage on a fixed
//     cadence, backing off exponentially while the server is unreachable;
//   - the event loop consumes the realtime subscription and applies each
//     server event (printer lists, SDCP envelopes, upload progress,
//     toasts) to the store.
//
// Both log failures and keep going; only startup errors are fatal.
package app
