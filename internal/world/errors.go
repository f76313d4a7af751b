package world

import (
	"errors"
	"fmt"
)

// ErrorKind separates the ways generation can fail.
type ErrorKind int

const (
	// KindValidation marks a malformed parameter that was replaced by its default.
	KindValidation ErrorKind = iota + 1
	// KindPrecondition marks a stage called before its dependencies exist. The call is a no-op.
	KindPrecondition
	// KindStage marks an unexpected fault inside a stage. The stage and everything downstream is cleared.
	KindStage
	// KindPersistence marks a malformed or truncated world file.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindStage:
		return "stage failure"
	case KindPersistence:
		return "persistence"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

var (
	ErrMissingStage = errors.New("required stage has not been generated")
	ErrNotFullGlobe = errors.New("grid does not span the full globe")
	ErrDegenerate   = errors.New("degenerate field")
)

// GenerationError is returned by every stage and by the persistence layer.
type GenerationError struct {
	Kind  ErrorKind
	Stage Stage
	Op    string
	Err   error
}

func (e *GenerationError) Error() string {
	where := e.Op
	if e.Stage != StageNone {
		if where != "" {
			where = e.Stage.String() + ": " + where
		} else {
			where = e.Stage.String()
		}
	}
	if where == "" {
		return fmt.Sprintf("worldgen: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("worldgen: %s: %s: %v", where, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsKind reports whether err is a GenerationError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ge *GenerationError
	return errors.As(err, &ge) && ge.Kind == k
}

func precondition(stage Stage, err error) error {
	return &GenerationError{Kind: KindPrecondition, Stage: stage, Err: err}
}

func stageFailure(stage Stage, op string, err error) error {
	return &GenerationError{Kind: KindStage, Stage: stage, Op: op, Err: err}
}
