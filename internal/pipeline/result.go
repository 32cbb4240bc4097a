package pipeline

import "fmt"

// Status is the outcome of a single prompt or action.
type Status int

const (
	StatusOK Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned by every prompt and action. Exactly one of the three
// constructors produces it; Err is set only for StatusFailed.
type Result struct {
	Status Status
	Err    error
}

// OK reports success.
func OK() Result {
	return Result{Status: StatusOK}
}

// Cancelled reports that the user aborted.
func Cancelled() Result {
	return Result{Status: StatusCancelled}
}

// Failed reports an unrecoverable error. A nil err is treated as OK.
func Failed(err error) Result {
	if err == nil {
		return OK()
	}
	return Result{Status: StatusFailed, Err: err}
}

// ExitCode maps a result to a process exit code: cancellation is a normal exit.
func ExitCode(r Result) int {
	switch r.Status {
	case StatusOK, StatusCancelled:
		return 0
	default:
		return 1
	}
}
