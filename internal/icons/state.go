package icons

// State is the lifecycle state of a Module.
type State int

const (
	// StateIdle means the last generation, if any, had no failures.
	StateIdle State = iota
	// StateRegenerating means a generation is running.
	StateRegenerating
	// StateIdleWithWarnings means the last generation dropped at least one file.
	StateIdleWithWarnings
	// StateDisabled is terminal: the source directory could not be resolved.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegenerating:
		return "regenerating"
	case StateIdleWithWarnings:
		return "idle-with-warnings"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
