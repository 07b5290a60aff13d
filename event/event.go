// Package event defines the lifecycle notifications emitted while a stream is
// compressed or decompressed, and the registry that dispatches them to listeners.
package event

import (
	"fmt"
	"time"
)

// Kind classifies an Event.
type Kind uint8

const (
	// KindStarted is emitted once when the stream is opened.
	KindStarted Kind = iota + 1
	// KindBlockDone is emitted for each block, in block index order.
	KindBlockDone
	// KindCompleted is emitted once with the totals after the stream is closed.
	KindCompleted
	// KindWarning reports a non-fatal condition.
	KindWarning
	// KindError reports the fatal error that ended a run.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "STARTED"
	case KindBlockDone:
		return "BLOCK_DONE"
	case KindCompleted:
		return "COMPLETED"
	case KindWarning:
		return "WARNING"
	case KindError:
		return "ERROR"
	default:
		return "Unknown"
	}
}

// Event is an immutable notification. Listeners receive it by value.
type Event struct {
	// Time is when the event was created.
	Time time.Time
	// Message carries the diagnostic for warnings and errors, and a short
	// description otherwise.
	Message string
	// BlockIndex is the block the event refers to, or -1.
	BlockIndex int
	// RawBytes is the plaintext size: of the block for KindBlockDone, of the stream
	// so far for KindCompleted.
	RawBytes int64
	// EncodedBytes is the container size matching RawBytes.
	EncodedBytes int64
	// Elapsed is the time since the stream started.
	Elapsed time.Duration
	// Kind classifies the event.
	Kind Kind
}

// New creates an event of the given kind that does not refer to a block.
func New(kind Kind, msg string) Event {
	return Event{Kind: kind, Message: msg, BlockIndex: -1, Time: time.Now()}
}

// Block creates a KindBlockDone event.
func Block(index int, rawBytes, encodedBytes int64, elapsed time.Duration) Event {
	return Event{
		Kind:         KindBlockDone,
		BlockIndex:   index,
		RawBytes:     rawBytes,
		EncodedBytes: encodedBytes,
		Elapsed:      elapsed,
		Time:         time.Now(),
	}
}

// Ratio returns EncodedBytes / RawBytes, or 0 when RawBytes is zero.
func (e Event) Ratio() float64 {
	if e.RawBytes == 0 {
		return 0
	}

	return float64(e.EncodedBytes) / float64(e.RawBytes)
}

func (e Event) String() string {
	switch e.Kind {
	case KindBlockDone:
		return fmt.Sprintf("%s block=%d raw=%d encoded=%d", e.Kind, e.BlockIndex, e.RawBytes, e.EncodedBytes)
	case KindCompleted:
		return fmt.Sprintf("%s raw=%d encoded=%d elapsed=%s", e.Kind, e.RawBytes, e.EncodedBytes, e.Elapsed)
	default:
		if e.Message == "" {
			return e.Kind.String()
		}

		return e.Kind.String() + " " + e.Message
	}
}

// Listener receives events. OnEvent is called synchronously on the goroutine that
// drives the stream and should return quickly.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a function to the Listener interface.
//
// Function values are not comparable, so register a *ListenerFunc when it must be
// removed later.
type ListenerFunc func(e Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}
