package autolock

// Kind separates activity signals from visibility loss.
type Kind int

const (
	KindActivity Kind = iota + 1
	KindHidden
)

// Activity names a qualifying user interaction.
type Activity string

const (
	PointerDown Activity = "pointerdown"
	KeyDown     Activity = "keydown"
	Scroll      Activity = "scroll"
	TouchStart  Activity = "touchstart"
)

func (a Activity) valid() bool {
	switch a {
	case PointerDown, KeyDown, Scroll, TouchStart:
		return true
	}
	return false
}

// Event is one notification from the host's activity/visibility source.
type Event struct {
	Kind     Kind
	Activity Activity
}

func ActivityEvent(a Activity) Event {
	return Event{Kind: KindActivity, Activity: a}
}

// HiddenEvent reports that the view was hidden or backgrounded.
func HiddenEvent() Event {
	return Event{Kind: KindHidden}
}
