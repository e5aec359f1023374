package resload

// State is the lifecycle position of one Identity in a document.
type State int

const (
	// Absent means no element carries the Identity.
	Absent State = iota
	// Loading means the element exists but has not completed.
	Loading
	// Loaded means the element exists and completed.
	Loaded
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	}
	return "unknown"
}
