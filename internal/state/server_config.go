package state

import (
	"slices"
	"sync"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/catalog"
)

// ServerSnapshot is the configuration part of the connected event.
type ServerSnapshot struct {
	App     api.AppSettings
	Tasks   []api.Task
	Presets []api.Preset
	Folders []string
	Paused  bool
}

// ServerConfig holds server-delivered configuration. Presets and tasks live in
// catalog lists shared with the REST resources, so both paths write through
// the same storage.
type ServerConfig struct {
	mu      sync.RWMutex
	app     api.AppSettings
	folders []string
	paused  bool
	loaded  bool

	presets *catalog.List[api.Preset]
	tasks   *catalog.List[api.Task]
}

// NewServerConfig wires the store to the shared preset and task lists.
// Nil lists are replaced with private ones.
func NewServerConfig(presets *catalog.List[api.Preset], tasks *catalog.List[api.Task]) *ServerConfig {
	if presets == nil {
		presets = catalog.NewPresets()
	}
	if tasks == nil {
		tasks = catalog.NewTasks()
	}
	return &ServerConfig{presets: presets, tasks: tasks}
}

// Replace swaps the whole configuration.
func (c *ServerConfig) Replace(snap ServerSnapshot) {
	c.mu.Lock()
	c.app = snap.App
	c.folders = slices.Clone(snap.Folders)
	c.paused = snap.Paused
	c.loaded = true
	c.mu.Unlock()

	c.presets.ReplaceItems(snap.Presets)
	c.tasks.ReplaceItems(snap.Tasks)
}

// SetPaused replaces the paused flag.
func (c *ServerConfig) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = paused
}

// ReplacePresets swaps the preset list.
func (c *ServerConfig) ReplacePresets(presets []api.Preset) {
	c.presets.ReplaceItems(presets)
}

// ReplaceTasks swaps the task list.
func (c *ServerConfig) ReplaceTasks(tasks []api.Task) {
	c.tasks.ReplaceItems(tasks)
}

// Paused reports whether the download queue is paused.
func (c *ServerConfig) Paused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused
}

// Loaded reports whether a snapshot has been applied.
func (c *ServerConfig) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// App returns the app settings.
func (c *ServerConfig) App() api.AppSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.app
}

// Folders returns a copy of the folder list.
func (c *ServerConfig) Folders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.folders)
}

// Presets exposes the shared preset list.
func (c *ServerConfig) Presets() *catalog.List[api.Preset] { return c.presets }

// Tasks exposes the shared task list.
func (c *ServerConfig) Tasks() *catalog.List[api.Task] { return c.tasks }

// Snapshot returns a copy of the whole configuration.
func (c *ServerConfig) Snapshot() ServerSnapshot {
	c.mu.RLock()
	snap := ServerSnapshot{
		App:     c.app,
		Folders: slices.Clone(c.folders),
		Paused:  c.paused,
	}
	c.mu.RUnlock()
	snap.Presets = c.presets.Items()
	snap.Tasks = c.tasks.Items()
	return snap
}
