package layout

import (
	"errors"
	"fmt"
)

// ErrRootNotFound is returned by discovery when the study root does not
// exist or is not a directory. It is the only discovery failure that aborts
// a run.
var ErrRootNotFound = errors.New("root directory not found")

// ConventionError reports a path that was offered to the resolver but
// violates the directory convention (wrong segment at a fixed depth, missing
// token, undeclared category). It is fatal to that path only.
type ConventionError struct {
	Path   string
	Reason string
}

func (e *ConventionError) Error() string {
	return fmt.Sprintf("convention violation: %s: %s", e.Path, e.Reason)
}

// IsConventionError reports whether err is (or wraps) a *ConventionError.
func IsConventionError(err error) bool {
	var e *ConventionError
	return errors.As(err, &e)
}
