package core

import (
	"fmt"
	"log"
	"time"
)

// Size describes the dimensions of a grid.
type Size struct {
	W int
	H int
}

// Severity grades a generation message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText renders the severity as its short name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event is a structured progress or diagnostic message emitted by a stage.
type Event struct {
	Time     time.Time
	Severity Severity
	Stage    string
	Message  string
	Err      error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Severity, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Severity, e.Stage, e.Message)
}

// Sink receives events. A nil Sink discards them.
type Sink func(Event)

// Emit delivers an event, stamping its time when unset.
func (s Sink) Emit(e Event) {
	if s == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s(e)
}

// Fanout returns a sink that forwards every event to each non-nil sink in order.
func Fanout(sinks ...Sink) Sink {
	return func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s(e)
			}
		}
	}
}

// LogSink prints events at or above floor to logger.
func LogSink(logger *log.Logger, floor Severity) Sink {
	if logger == nil {
		return nil
	}
	return func(e Event) {
		if e.Severity < floor {
			return
		}
		logger.Print(e.String())
	}
}
