package domain

// Status is the lifecycle state of a debate runtime.
type Status int

const (
	StatusDraft Status = iota
	StatusRunning
	StatusPaused
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Side is an agent's position in the debate.
type Side string

const (
	SidePro     Side = "pro"
	SideCon     Side = "con"
	SideNeutral Side = "neutral"
)

// Standard phase names carried by status and speech messages. The runtime
// itself does not sequence phases; callers pick them.
const (
	PhaseOpening = "opening"
	PhaseCross   = "cross"
	PhaseFree    = "free"
	PhaseSummary = "summary"
	PhaseJudge   = "judge"
)
