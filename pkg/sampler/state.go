package sampler

// State is the step an analysis is in.
type State int32

const (
	Idle State = iota
	Seeking
	Capturing
	Analyzing
	Done
	// Failed is the error/fallback state: the theme is left untouched.
	Failed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Seeking:   "seeking",
	Capturing: "capturing",
	Analyzing: "analyzing",
	Done:      "done",
	Failed:    "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
