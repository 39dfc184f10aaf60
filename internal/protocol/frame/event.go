package frame

// EventKind classifies a reader diagnostic.
type EventKind uint8

const (
	EventInvalidSize EventKind = iota + 1
	EventInvalidFooter
	EventReadError
	EventFiltered
)

func (k EventKind) String() string {
	switch k {
	case EventInvalidSize:
		return "invalid_size"
	case EventInvalidFooter:
		return "invalid_footer"
	case EventReadError:
		return "read_error"
	case EventFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

// Event describes one frame the reader did not deliver.
// Fields that do not apply to the kind are zero; Available is -1 when the
// source could not report it or no header was decoded. Partial is the number
// of header bytes received before a short header.
type Event struct {
	Kind        EventKind
	FrameLength int
	Available   int
	Partial     int
	FooterIndex int
	FooterValue byte
	Category    byte
	Err         error
}

// Sink receives reader diagnostics. It is called synchronously from Read.
type Sink func(Event)

func discard(Event) {}
