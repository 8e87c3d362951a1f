package datafetch

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON marks a 2xx response whose body did not parse.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// FetchError is returned once a call has given up.
type FetchError struct {
	Method   string
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP error! Status: %d", e.Status)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
