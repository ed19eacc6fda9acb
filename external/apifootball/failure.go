package apifootball

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrThrottled marks a call that kept receiving HTTP 429.
	ErrThrottled = crerr.New("api-football throttled")
	// ErrTransient marks transport errors, 5xx answers and breaker rejections.
	ErrTransient = crerr.New("api-football transient failure")
	// ErrRejected marks an answer the provider refused in its error payload.
	ErrRejected = crerr.New("api-football rejected request")
)

// Failure is the only error Fetch returns. Callers treat it as "skip this
// unit of work".
type Failure struct {
	Path       string
	Attempts   int
	StatusCode int
	Throttled  bool
	Cause      error
}

func (f *Failure) Error() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("api-football %s failed after %d attempt(s), status=%d: %v", f.Path, f.Attempts, f.StatusCode, f.Cause)
	}
	return fmt.Sprintf("api-football %s failed after %d attempt(s): %v", f.Path, f.Attempts, f.Cause)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is lets errors.Is see markers attached with crerr.Mark on the cause.
func (f *Failure) Is(target error) bool {
	if f.Cause == nil {
		return false
	}
	return crerr.Is(f.Cause, target)
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, ErrTransient) || crerr.Is(err, ErrThrottled)
}
