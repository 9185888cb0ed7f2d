// Package socket owns the realtime connection to the backend and turns its
// event stream into store mutations.
//
// # Wire Format
//
// Every websocket text message is a frame:
//
//	{"event": "completed", "data": "{\"data\": {\"_id\": \"abc\", ...}}"}
//
// The frame data is the envelope {data, message?, status?}, either as a JSON
// string (what the backend sends) or inline as an object.
//
// # Event Mapping
//
//	connected       replace server config, load queue and history wholesale
//	added           insert into queue, success notice
//	log_*           notice at the matching level, no mutation
//	completed       remove from queue (if present), insert into history
//	cancelled       remove from queue and warn; ignored when absent
//	cleared         remove from history; ignored when absent
//	updated         update in history if present there, else in queue
//	update          update in history only; ignored otherwise
//	paused          set the paused flag, info notice
//	presets_update  replace the preset list
//	tasks_update    replace the task list
//
// Kinds are a closed enum and the handler table is indexed by Kind, so a new
// Kind without a handler fails TestHandlersCoverEveryKind.
//
// # Failure Handling
//
// A frame that cannot be decoded, names an unknown event, or carries a bad
// payload is logged, counted and dropped. The read loop always continues.
//
// # Reconnects
//
// Client.Run dials, reads until the connection fails, then retries with
// exponential backoff. Each connection starts unsynced: frames that arrive
// before the connected snapshot are buffered (bounded, oldest evicted) and
// replayed after it, so whatever was missed while offline is reconciled by
// the fresh snapshot.
package socket
