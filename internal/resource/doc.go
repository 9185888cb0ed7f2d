// Package resource provides REST CRUD clients for the backend's configuration
// entities (tasks, conditions, presets, notification targets) and the file
// browser.
//
// Each Resource keeps a sorted local list that reflects successful writes
// without a reload. Failures are recorded in LastError and pushed to the
// notification log; callers choose between nil/false results and returned
// errors with Options.ThrowInstead.
package resource
