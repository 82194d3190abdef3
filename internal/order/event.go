package order

// EventKind classifies inbound transport events.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventDocument
	EventDone
	EventButton
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventDocument:
		return "document"
	case EventDone:
		return "done"
	case EventButton:
		return "button"
	case EventCancel:
		return "cancel"
	}
	return "unknown"
}

// Button keys. Each prompt's buttons share one key so a press can be matched
// against the state that asked for it.
const (
	KeyPrintType = "print_type"
	KeyQuantity  = "quantity"
	KeySides     = "sides"
	KeyConfirm   = "confirm"
)

// Button is a pressed inline button.
type Button struct {
	Key   string
	Value string
}

// Event is one inbound user action.
type Event struct {
	Kind     EventKind
	UserID   int64
	ChatID   int64
	Username string
	File     FileRef
	Button   Button
}

// expectedButton returns the button key a state waits for.
func expectedButton(s State) string {
	switch s {
	case StateAwaitingPrintType:
		return KeyPrintType
	case StateAwaitingQuantity:
		return KeyQuantity
	case StateAwaitingSides:
		return KeySides
	case StateAwaitingConfirmation:
		return KeyConfirm
	}
	return ""
}
