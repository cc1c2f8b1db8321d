package trending

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a listing fetch that exceeded its deadline. Callers can
// distinguish it from other transport failures with errors.Is.
var ErrTimeout = errors.New("trending: fetch timed out")

// ErrNoRepositories marks a successfully fetched page from which the parser
// extracted zero entries. It is a warning condition, not a hard failure: the
// page markup may have changed, or the listing may genuinely be empty.
var ErrNoRepositories = errors.New("trending: no repositories found on page")

// StatusError is returned when the listing page responds with a non-2xx
// status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trending: unexpected status %d", e.Code)
}
