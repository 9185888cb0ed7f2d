package socket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/notify"
	"github.com/queuewatch/queuewatch/internal/state"
)

// Notifier receives user-facing notices produced by events.
type Notifier interface {
	Add(level notify.Level, message string) notify.Notification
}

type handlerFunc func(d *Dispatcher, env Envelope) error

// handlers maps every Kind to its mutation. TestHandlersCoverEveryKind fails
// when a Kind is added without an entry here.
var handlers = [kindCount]handlerFunc{
	KindConnected:     (*Dispatcher).onConnected,
	KindAdded:         (*Dispatcher).onAdded,
	KindLogInfo:       logHandler(notify.LevelInfo),
	KindLogSuccess:    logHandler(notify.LevelSuccess),
	KindLogWarning:    logHandler(notify.LevelWarning),
	KindLogError:      logHandler(notify.LevelError),
	KindCompleted:     (*Dispatcher).onCompleted,
	KindCancelled:     (*Dispatcher).onCancelled,
	KindCleared:       (*Dispatcher).onCleared,
	KindUpdated:       (*Dispatcher).onUpdated,
	KindUpdate:        (*Dispatcher).onUpdate,
	KindPaused:        (*Dispatcher).onPaused,
	KindPresetsUpdate: (*Dispatcher).onPresetsUpdate,
	KindTasksUpdate:   (*Dispatcher).onTasksUpdate,
}

// Dispatcher applies decoded events to the stores. It is not safe for
// concurrent Apply calls; one reader goroutine feeds it in delivery order.
type Dispatcher struct {
	store    *state.Store
	config   *state.ServerConfig
	notifier Notifier
	metrics  *Metrics
	log      *slog.Logger
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics records dispatch outcomes.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDispatcher wires the stores an event stream writes to.
func NewDispatcher(store *state.Store, config *state.ServerConfig, notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		config:   config,
		notifier: notifier,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ApplyRaw decodes and applies one websocket message.
func (d *Dispatcher) ApplyRaw(raw []byte) error {
	frame, err := DecodeFrame(raw)
	if err != nil {
		d.drop("", err)
		return err
	}
	return d.Apply(frame)
}

// Apply runs the handler for frame. Decode failures and unknown events are
// logged and dropped; the returned error is informational only.
func (d *Dispatcher) Apply(frame Frame) (err error) {
	kind, ok := ParseKind(frame.Event)
	if !ok {
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
		d.drop(frame.Event, err)
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s handler panicked: %v", ErrMalformed, kind, r)
			d.drop(kind.String(), err)
		}
	}()

	env, err := frame.Envelope()
	if err != nil {
		d.drop(kind.String(), err)
		return err
	}
	if err := handlers[kind](d, env); err != nil {
		d.drop(kind.String(), err)
		return err
	}
	d.metrics.event(kind.String(), outcomeApplied)
	return nil
}

// drop records a discarded frame. Only accepted event names become metric
// labels, so arbitrary names from the server cannot grow the label set.
func (d *Dispatcher) drop(event string, err error) {
	label := unknownEvent
	if _, ok := ParseKind(event); ok {
		label = event
	}
	d.metrics.event(label, outcomeDropped)
	d.log.Warn("dropping realtime event", "event", event, "error", err)
	if d.store != nil {
		d.store.RecordError(err)
	}
}

func (d *Dispatcher) notify(level notify.Level, message string) {
	if d.notifier == nil {
		return
	}
	d.notifier.Add(level, message)
}

// TransportConnected records an established connection.
func (d *Dispatcher) TransportConnected() {
	d.store.SetConnected(true)
	d.metrics.setConnected(true)
}

// TransportDisconnected records a lost connection.
func (d *Dispatcher) TransportDisconnected() {
	d.store.SetConnected(false)
	d.metrics.setConnected(false)
}

type connectedPayload struct {
	Queue   map[string]api.Item `json:"queue"`
	Done    map[string]api.Item `json:"done"`
	App     api.AppSettings     `json:"app"`
	Tasks   []api.Task          `json:"tasks"`
	Presets []api.Preset        `json:"presets"`
	Folders []string            `json:"folders"`
	Paused  bool                `json:"paused"`
}

func (d *Dispatcher) onConnected(env Envelope) error {
	var p connectedPayload
	if err := env.Decode(&p); err != nil {
		return err
	}
	d.config.Replace(state.ServerSnapshot{
		App:     p.App,
		Tasks:   p.Tasks,
		Presets: p.Presets,
		Folders: p.Folders,
		Paused:  p.Paused,
	})
	d.store.ReplaceAll(keyed(p.Queue), keyed(p.Done))
	d.log.Debug("snapshot applied", "queue", len(p.Queue), "history", len(p.Done))
	return nil
}

// keyed fills in missing item ids from the map keys.
func keyed(items map[string]api.Item) map[string]api.Item {
	for id, item := range items {
		if item.ID == "" {
			item.ID = id
			items[id] = item
		}
	}
	return items
}

func decodeItem(env Envelope) (api.Item, error) {
	var item api.Item
	if err := env.Decode(&item); err != nil {
		return api.Item{}, err
	}
	if item.ID == "" {
		return api.Item{}, fmt.Errorf("%w: item without _id", ErrMalformed)
	}
	return item, nil
}

func label(item api.Item) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	if item.URL != "" {
		return item.URL
	}
	return item.ID
}

func (d *Dispatcher) onAdded(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	d.store.Add(state.Queue, item.ID, item)
	d.notify(notify.LevelSuccess, "Item queued: "+label(item))
	return nil
}

func (d *Dispatcher) onCompleted(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	d.store.Transfer(state.Queue, state.History, item.ID, item)
	return nil
}

func (d *Dispatcher) onCancelled(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	if !d.store.Has(state.Queue, item.ID) {
		return nil
	}
	prev := d.store.Get(state.Queue, item.ID, item)
	d.store.Remove(state.Queue, item.ID)
	if item.Title == "" {
		item.Title = prev.Title
	}
	d.notify(notify.LevelWarning, "Download cancelled: "+label(item))
	return nil
}

func (d *Dispatcher) onCleared(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	d.store.Remove(state.History, item.ID)
	return nil
}

func (d *Dispatcher) onUpdated(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	if d.store.Has(state.History, item.ID) {
		d.store.Update(state.History, item.ID, item)
		return nil
	}
	d.store.Update(state.Queue, item.ID, item)
	return nil
}

func (d *Dispatcher) onUpdate(env Envelope) error {
	item, err := decodeItem(env)
	if err != nil {
		return err
	}
	if !d.store.Has(state.History, item.ID) {
		return nil
	}
	d.store.Update(state.History, item.ID, item)
	return nil
}

func (d *Dispatcher) onPaused(env Envelope) error {
	paused, err := decodePaused(env.Data)
	if err != nil {
		return err
	}
	d.config.SetPaused(paused)
	msg := "Download queue resumed."
	if paused {
		msg = "Download queue paused. No new downloads will start until resumed."
	}
	if env.Message != "" {
		msg = env.Message
	}
	d.notify(notify.LevelInfo, msg)
	return nil
}

// decodePaused accepts either a bare boolean or {"paused": bool}.
func decodePaused(raw json.RawMessage) (bool, error) {
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag, nil
	}
	var obj struct {
		Paused *bool `json:"paused"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Paused == nil {
		return false, fmt.Errorf("%w: paused payload %s", ErrMalformed, string(raw))
	}
	return *obj.Paused, nil
}

func (d *Dispatcher) onPresetsUpdate(env Envelope) error {
	var presets []api.Preset
	if err := env.Decode(&presets); err != nil {
		return err
	}
	d.config.ReplacePresets(presets)
	return nil
}

func (d *Dispatcher) onTasksUpdate(env Envelope) error {
	var tasks []api.Task
	if err := env.Decode(&tasks); err != nil {
		return err
	}
	d.config.ReplaceTasks(tasks)
	return nil
}

func logHandler(level notify.Level) handlerFunc {
	return func(d *Dispatcher, env Envelope) error {
		msg := logMessage(env)
		if msg == "" {
			return errors.New("log event without message")
		}
		d.notify(level, msg)
		return nil
	}
}

// logMessage prefers the envelope message and falls back to the data, which
// may be a plain string or an object carrying a message.
func logMessage(env Envelope) string {
	if m := strings.TrimSpace(env.Message); m != "" {
		return m
	}
	if len(env.Data) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(env.Data, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var obj struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(env.Data, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Msg != "" {
			return obj.Msg
		}
	}
	return string(env.Data)
}
