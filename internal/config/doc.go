// Package config loads the client's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/queuewatch/config.toml
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. QUEUEWATCH_SERVER_URL and QUEUEWATCH_LOG_LEVEL override the result
//
// # TOML Format
//
//	server_url = "http://127.0.0.1:8081"
//	socket_path = "/ws"
//	log_dir = "~/.local/share/queuewatch/logs"
//	log_level = "info"
//	notifications_file = "~/.local/share/queuewatch/notifications.toml"
//	request_timeout_seconds = 10
//	event_buffer = 256
//	metrics_addr = ""          # e.g. "127.0.0.1:9101" to serve /metrics
//
// Every field is optional. Tilde expansion applies to the path fields.
//
// Missing config files are not an error, so the client works out of the box
// against a backend on the default port.
package config
