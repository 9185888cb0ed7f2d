// Package app is the composition root.
//
// Build creates every store once and passes it to its consumers: the socket
// dispatcher and the REST resources share the same preset and task lists
// through state.ServerConfig, and the notification log is the single
// notifier for both. Run then starts the background workers and blocks in
// either the TUI or the headless status loop:
//
//   - socket: realtime connection with reconnect and snapshot resync
//   - notes: batched writes of the notification log
//   - preload: REST refresh of presets, tasks, conditions and notification
//     targets
//   - metrics: optional Prometheus endpoint (metrics_addr)
//
// Cancelling the context or quitting the TUI stops all workers and flushes
// the notification log.
package app
