package worker

import "fmt"

// OutcomeKind classifies how a worker run ended.
type OutcomeKind int

const (
	// CompletedNormally means the periodic action asked the loop to stop.
	CompletedNormally OutcomeKind = iota
	// Cancelled means the loop left because the cancellation signal was set.
	Cancelled
	// Faulted means the periodic action failed or panicked.
	Faulted
)

func (k OutcomeKind) String() string {
	switch k {
	case CompletedNormally:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one worker run. Err is set only for Faulted.
type Outcome struct {
	Kind       OutcomeKind
	Err        error
	Iterations int64
}

func Completed(iterations int64) Outcome {
	return Outcome{Kind: CompletedNormally, Iterations: iterations}
}

func CancelledAfter(iterations int64) Outcome {
	return Outcome{Kind: Cancelled, Iterations: iterations}
}

func FaultedWith(err error, iterations int64) Outcome {
	return Outcome{Kind: Faulted, Err: err, Iterations: iterations}
}

func (o Outcome) String() string {
	if o.Kind == Faulted && o.Err != nil {
		return fmt.Sprintf("%s after %d iterations: %v", o.Kind, o.Iterations, o.Err)
	}
	return fmt.Sprintf("%s after %d iterations", o.Kind, o.Iterations)
}
