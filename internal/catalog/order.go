package catalog

import (
	"strings"

	"github.com/queuewatch/queuewatch/internal/api"
)

func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// TaskOrder sorts tasks by name.
func TaskOrder(a, b api.Task) bool { return nameLess(a.Name, b.Name) }

// PresetOrder sorts presets by priority, highest first, then name.
func PresetOrder(a, b api.Preset) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return nameLess(a.Name, b.Name)
}

// ConditionOrder sorts conditions by priority, highest first, then name.
func ConditionOrder(a, b api.Condition) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return nameLess(a.Name, b.Name)
}

// TargetOrder sorts notification targets by name.
func TargetOrder(a, b api.NotificationTarget) bool { return nameLess(a.Name, b.Name) }

// NewTasks returns an empty task list.
func NewTasks() *List[api.Task] { return NewList(TaskOrder) }

// NewPresets returns an empty preset list.
func NewPresets() *List[api.Preset] { return NewList(PresetOrder) }

// NewConditions returns an empty condition list.
func NewConditions() *List[api.Condition] { return NewList(ConditionOrder) }

// NewTargets returns an empty notification target list.
func NewTargets() *List[api.NotificationTarget] { return NewList(TargetOrder) }
