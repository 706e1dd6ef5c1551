package escalation

// Level is one of the scope fallbacks tried after no task in the owner chain
// handled an escalation. Levels are tried in declaration order.
type Level int

const (
	LevelFlow Level = iota
	LevelProcess
	LevelInvocation
	LevelSystem
	// LevelExhausted means every fallback has been tried.
	LevelExhausted
)

func (l Level) String() string {
	switch l {
	case LevelFlow:
		return "flow"
	case LevelProcess:
		return "process"
	case LevelInvocation:
		return "invocation"
	case LevelSystem:
		return "system"
	default:
		return "exhausted"
	}
}
