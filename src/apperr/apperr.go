package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode identifies one kind of failure in the capture/recognize/translate flow.
type ErrorCode string

const (
	CaptureCancelled     ErrorCode = "CAPTURE_CANCELLED"
	CaptureInvalidRegion ErrorCode = "CAPTURE_INVALID_REGION"
	CaptureFailed        ErrorCode = "CAPTURE_FAILED"
	RecognitionEmpty     ErrorCode = "RECOGNITION_EMPTY"
	RecognitionFailed    ErrorCode = "RECOGNITION_FAILED"
	TranslationFailed    ErrorCode = "TRANSLATION_FAILED"
	LexiconMiss          ErrorCode = "LEXICON_MISS"
	NotFound             ErrorCode = "NOT_FOUND"
	EngineUnavailable    ErrorCode = "ENGINE_UNAVAILABLE"
	InvalidRequest       ErrorCode = "INVALID_REQUEST"
	PresentFailed        ErrorCode = "PRESENT_FAILED"
	Internal             ErrorCode = "INTERNAL"
)

// ReasonTimeout marks an error produced by a deadline overrun.
const ReasonTimeout = "timeout"

// Error is a structured error carrying a code, the pipeline stage it came
// from (may be empty) and an optional reason.
type Error struct {
	Code    ErrorCode
	Stage   string
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	prefix := string(e.Code)
	if e.Stage != "" {
		prefix = e.Stage + ": " + prefix
	}
	if e.Reason != "" {
		prefix += " (" + e.Reason + ")"
	}
	if msg == "" {
		return prefix
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with the given code and message.
func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates an error with the given code around err. A nil err yields nil.
func Wrap(code ErrorCode, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// NewCancelled reports a user abort of the capture session.
func NewCancelled() *Error {
	return &Error{Code: CaptureCancelled, Message: "capture cancelled"}
}

// NewEmpty reports that recognition produced no text.
func NewEmpty() *Error {
	return &Error{Code: RecognitionEmpty, Message: "no text found"}
}

// NewNotFound reports a dictionary miss for an explicit lookup.
func NewNotFound(word string) *Error {
	return &Error{Code: NotFound, Message: fmt.Sprintf("word not found: %s", word)}
}

// NewUnavailable reports that an engine is not initialized or unreachable.
func NewUnavailable(engine string, err error) *Error {
	return &Error{Code: EngineUnavailable, Message: fmt.Sprintf("%s unavailable", engine), Err: err}
}

// NewInvalidRequest reports malformed input.
func NewInvalidRequest(msg string) *Error {
	return &Error{Code: InvalidRequest, Message: msg}
}

// Timeout converts a context deadline into an error of the given code with
// the timeout reason. Other errors are wrapped with the code unchanged.
func Timeout(code ErrorCode, err error) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Code: code, Err: err}
	if errors.Is(err, context.DeadlineExceeded) {
		e.Reason = ReasonTimeout
		e.Message = "deadline exceeded"
	}
	return e
}

// WithStage returns err annotated with stage. Errors that are not *Error are
// wrapped as code.
func WithStage(err error, stage string, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		cp := *ae
		cp.Stage = stage
		return &cp
	}
	return &Error{Code: code, Stage: stage, Err: err}
}

// Is checks whether err (or anything it wraps) is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the code of err, Internal for foreign errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Internal
}

// StageOf returns the stage recorded on err, if any.
func StageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Stage
	}
	return ""
}

// IsTimeout reports whether err was caused by a deadline overrun.
func IsTimeout(err error) bool {
	var ae *Error
	if errors.As(err, &ae) && ae.Reason == ReasonTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Status maps an error to an HTTP status code.
func Status(err error) int {
	if IsTimeout(err) {
		return 504
	}
	switch CodeOf(err) {
	case InvalidRequest, CaptureInvalidRegion:
		return 400
	case NotFound:
		return 404
	case EngineUnavailable:
		return 503
	case RecognitionFailed, TranslationFailed:
		return 502
	default:
		return 500
	}
}
