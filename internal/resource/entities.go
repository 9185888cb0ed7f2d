package resource

import (
	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/catalog"
)

// Tasks is the scheduled task resource.
type Tasks = Resource[api.Task]

// Conditions is the download condition resource.
type Conditions = Resource[api.Condition]

// Presets is the preset resource.
type Presets = Resource[api.Preset]

// Targets is the notification target resource.
type Targets = Resource[api.NotificationTarget]

// NewTasks builds the task resource. Pass the list held by the server config
// so socket pushes and REST edits land in one place; nil makes a private list.
func NewTasks(client api.Doer, list *catalog.List[api.Task], opts Options) *Tasks {
	if list == nil {
		list = catalog.NewTasks()
	}
	return New("task", "/api/tasks", client, list, opts)
}

// NewConditions builds the condition resource.
func NewConditions(client api.Doer, list *catalog.List[api.Condition], opts Options) *Conditions {
	if list == nil {
		list = catalog.NewConditions()
	}
	return New("condition", "/api/conditions", client, list, opts)
}

// NewPresets builds the preset resource.
func NewPresets(client api.Doer, list *catalog.List[api.Preset], opts Options) *Presets {
	if list == nil {
		list = catalog.NewPresets()
	}
	return New("preset", "/api/presets", client, list, opts)
}

// NewTargets builds the notification target resource.
func NewTargets(client api.Doer, list *catalog.List[api.NotificationTarget], opts Options) *Targets {
	if list == nil {
		list = catalog.NewTargets()
	}
	return New("notification target", "/api/notifications", client, list, opts)
}
