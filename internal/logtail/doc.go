// Package logtail reads the last lines of the client's own log file for the
// Log tab of the TUI.
package logtail
