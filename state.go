package mosaic

// State is the scheduler's lifecycle state.
//
//	Idle ──Start──▶ Active ──pending empty──▶ Exhausted
//	                  │  ▲                        │
//	         node cap │  └──threshold lowered /───┘
//	                  ▼     depth raised
//	               Capped ──MaxNodes raised──▶ Active
//
// Stop returns any state to Idle; Resume moves a started Idle scheduler back
// to Active.
type State uint8

const (
	StateIdle      State = iota // not started, stopped, or reset
	StateActive                 // ticks perform splits
	StateExhausted              // no leaf qualifies under the current settings
	StateCapped                 // the node cap was reached; the partial tree stays valid
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	case StateCapped:
		return "capped"
	default:
		return "unknown"
	}
}

// Done reports whether the state is a stop condition reached by ticking.
func (s State) Done() bool {
	return s == StateExhausted || s == StateCapped
}
