package resource

import "fmt"

// Scope is the lifetime a resource instance is shared across.
type Scope int

const (
	// ScopeTask resources live for a single task node.
	ScopeTask Scope = iota
	// ScopeThread resources are shared by every node of an execution
	// context tree and recycled when its root context finishes.
	ScopeThread
	// ScopeProcess resources live as long as the whole invocation.
	ScopeProcess
)

func (s Scope) String() string {
	switch s {
	case ScopeTask:
		return "task"
	case ScopeThread:
		return "thread"
	case ScopeProcess:
		return "process"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Covers reports whether s lives at least as long as other.
func (s Scope) Covers(other Scope) bool {
	return s >= other
}

// ParseScope converts a configuration string into a Scope. The empty string
// selects ScopeProcess.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "process":
		return ScopeProcess, nil
	case "thread":
		return ScopeThread, nil
	case "task":
		return ScopeTask, nil
	default:
		return 0, fmt.Errorf("unknown resource scope '%s'", s)
	}
}
