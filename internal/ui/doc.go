// Package ui is the Bubble Tea terminal interface.
//
// The model never holds references into the stores. On every tick it captures
// a snapshot of the state store, the server config and the notification log,
// and renders from that copy:
//
//   - header: connection state (LIVE, SYNCING, or the reconnect reason),
//     paused flag, queue/active/history counts, unseen notifications
//   - tabs: Queue (oldest first), History (newest first), Notifications,
//     Log (tail of the client log file, read only while visible)
//   - footer: key hints, or the last failed command
//
// Commands (pause, resume, item_cancel) go out through the Emitter, which is
// the realtime socket client in production.
package ui
