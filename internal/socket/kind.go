package socket

import "fmt"

// Kind enumerates the server events the client understands.
type Kind int

const (
	KindConnected Kind = iota
	KindAdded
	KindLogInfo
	KindLogSuccess
	KindLogWarning
	KindLogError
	KindCompleted
	KindCancelled
	KindCleared
	KindUpdated
	KindUpdate
	KindPaused
	KindPresetsUpdate
	KindTasksUpdate

	kindCount
)

var kindNames = [kindCount]string{
	KindConnected:     "connected",
	KindAdded:         "added",
	KindLogInfo:       "log_info",
	KindLogSuccess:    "log_success",
	KindLogWarning:    "log_warning",
	KindLogError:      "log_error",
	KindCompleted:     "completed",
	KindCancelled:     "cancelled",
	KindCleared:       "cleared",
	KindUpdated:       "updated",
	KindUpdate:        "update",
	KindPaused:        "paused",
	KindPresetsUpdate: "presets_update",
	KindTasksUpdate:   "tasks_update",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	return m
}()

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsNotice reports whether k only produces a notification and leaves the
// stores untouched.
func (k Kind) IsNotice() bool {
	switch k {
	case KindLogInfo, KindLogSuccess, KindLogWarning, KindLogError:
		return true
	}
	return false
}

// ParseKind maps a wire event name to its Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}
