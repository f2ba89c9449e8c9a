package mirror

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may want to branch on
var (
	ErrDesignNotFound = errors.New("no airoaming design found in mirror")
	ErrBadStatus      = errors.New("unexpected response status")
)

// StatusError reports a non-2xx response for an asset
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: received status code %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}
