package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorConfig covers invalid session construction: bad difficulty, missing
	// model, missing collaborators. Fatal before any request is issued.
	ErrorConfig ErrorCode = "CONFIG_ERROR"
	// ErrorRateLimited marks an upstream 429. Still fatal to the session:
	// nothing here retries.
	ErrorRateLimited ErrorCode = "RATE_LIMITED"
	// ErrorUpstream covers every other completion-service failure.
	ErrorUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrorInternal covers local failures: transcript bookkeeping, terminal IO.
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
