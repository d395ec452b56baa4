package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrMisuse is wrapped by every error caused by calling the profilers out of order.
	// Callers can match it with errors.Is to tell usage bugs apart from reporting failures.
	ErrMisuse = errors.New("profiler misuse")
	// ErrAlreadyRunning is returned when a key is started again before it was finished.
	ErrAlreadyRunning = fmt.Errorf("%w: interval already running, check the matching finish call", ErrMisuse)
	// ErrNotRunning is returned when a key is finished without a matching start.
	ErrNotRunning = fmt.Errorf("%w: interval not running, check the matching start call", ErrMisuse)
	// ErrMissingPhase is returned when a report needs a total key that was never finished.
	ErrMissingPhase = errors.New("phase required for the total has no elapsed time")
	// ErrZeroTotal is returned when the combined total of the total keys is zero.
	ErrZeroTotal = errors.New("combined phase total is zero")
)
