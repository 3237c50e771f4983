package session

// Phase is the lifecycle state of a Session.
type Phase int32

const (
	PhaseLocked Phase = iota
	PhaseUnlocking
	PhaseUnlocked
)

func (p Phase) String() string {
	switch p {
	case PhaseLocked:
		return "locked"
	case PhaseUnlocking:
		return "unlocking"
	case PhaseUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}
