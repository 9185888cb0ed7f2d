// Package api provides an HTTP client for the download manager's REST API.
//
// # Overview
//
// The client wraps JSON request/response handling for the /api endpoints used
// by queuewatch: tasks, conditions, presets, notification targets and the file
// browser. Entity types mirror the backend schema.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and, when a body is sent, Content-Type
//   - Include User-Agent: queuewatch/0.1
//   - Have a 10-second timeout unless WithTimeout is given
//
// # Error Handling
//
// Two failure classes are kept apart:
//
//   - Transport errors: connection refused, timeout, DNS. Wrapped as
//     "execute request: ..." and StatusCode returns 0 for them.
//   - API errors: any status >= 400. Returned as *Error with the status and a
//     message extracted by ParseAPIError from the JSON body, falling back to
//     the HTTP status line.
//
// Decoding failures are reported as "decode response: ...". An empty 2xx body
// is not an error.
//
// # Identifiers
//
// Entity ids decode from either JSON strings or numbers into ID, since the
// backend has changed representation between releases.
package api
