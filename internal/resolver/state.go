package resolver

// State is the lifecycle of one configuration key.
type State int

const (
	// Unresolved keys have never been requested.
	Unresolved State = iota
	// Resolving keys have a composition in flight.
	Resolving
	// Resolved keys hold an instance.
	Resolved
	// Failed keys hold a memoized error.
	Failed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}
