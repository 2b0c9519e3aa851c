package dispatch

import "errors"

var (
	// ErrTaskDoneUnderflow is returned when TaskDone is called more times
	// than items were put.
	ErrTaskDoneUnderflow = errors.New("balego/dispatch: task_done called too many times")

	// ErrWaitTimeout is returned by WaitFor when no case matched in time.
	ErrWaitTimeout = errors.New("balego/dispatch: wait timed out")

	// ErrNoCases is returned by WaitFor without any case.
	ErrNoCases = errors.New("balego/dispatch: no wait cases")

	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("balego/dispatch: handler panicked")
)
