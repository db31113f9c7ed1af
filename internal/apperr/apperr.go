package apperr

import "net/http"

// Error is the typed error surfaced by services. Controllers map it onto an
// HTTP response; everything that is not an *Error is treated as an internal
// server error.
type Error struct {
	code       string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(code string, msgToUser string) *Error {
	return &Error{
		code:      code,
		msgToUser: msgToUser,
	}
}

const (
	CodeTestNotFound         = "test_not_found"
	CodeTestInactive         = "test_inactive"
	CodeAttemptNotFound      = "attempt_not_found"
	CodeAttemptLimitExceeded = "attempt_limit_exceeded"
	CodeStageNotUnlocked     = "stage_not_unlocked"
	CodeStageAlreadyFinished = "stage_already_finished"
	CodeAttemptTerminal      = "attempt_terminal"
	CodeInvalidSubmission    = "invalid_submission"
	CodeDecisionNotFound     = "decision_not_found"
	CodeInvalidReview        = "invalid_review_decision"
)

func ErrTestNotFound() *Error {
	return New(CodeTestNotFound, "test not found").
		SetHttpStatusCode(http.StatusNotFound)
}

func ErrTestInactive() *Error {
	return New(CodeTestInactive, "test is not active").
		SetHttpStatusCode(http.StatusConflict)
}

func ErrAttemptNotFound() *Error {
	return New(CodeAttemptNotFound, "attempt not found").
		SetHttpStatusCode(http.StatusNotFound)
}

func ErrAttemptLimitExceeded() *Error {
	return New(CodeAttemptLimitExceeded, "attempt limit reached for this test").
		SetHttpStatusCode(http.StatusConflict)
}

func ErrStageNotUnlocked() *Error {
	return New(CodeStageNotUnlocked, "previous stage has not been passed yet").
		SetHttpStatusCode(http.StatusConflict)
}

func ErrStageAlreadyFinished() *Error {
	return New(CodeStageAlreadyFinished, "stage already submitted").
		SetHttpStatusCode(http.StatusConflict)
}

// ErrAttemptTerminal signals that another operation already finalized the
// attempt. Callers should re-read the attempt and return the recorded
// terminal result instead of surfacing this error.
func ErrAttemptTerminal() *Error {
	return New(CodeAttemptTerminal, "attempt has already been finalized").
		SetHttpStatusCode(http.StatusConflict)
}

func ErrInvalidSubmission(msg string) *Error {
	return New(CodeInvalidSubmission, msg).
		SetHttpStatusCode(http.StatusBadRequest)
}

func ErrDecisionNotFound() *Error {
	return New(CodeDecisionNotFound, "disqualification decision not found").
		SetHttpStatusCode(http.StatusNotFound)
}

func ErrInvalidReview() *Error {
	return New(CodeInvalidReview, "review decision must be approved, rejected or conditional").
		SetHttpStatusCode(http.StatusBadRequest)
}
