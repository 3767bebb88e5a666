package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrCodeMissingToken       ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeAlreadySubmitted   ErrorCode = "ALREADY_SUBMITTED"
	ErrCodeLookupFailed       ErrorCode = "LOOKUP_FAILED"
	ErrCodeEmptyFeedback      ErrorCode = "EMPTY_FEEDBACK"
	ErrCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeInvalidSentiment   ErrorCode = "INVALID_SENTIMENT"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
)

const (
	MsgUnableToLoad         = "Unable to load feedback form"
	MsgInvalidOrExpired     = "Invalid or expired feedback link"
	MsgInvalidCheckURL      = "Invalid feedback link. Please check the URL."
	MsgAlreadySubmitted     = "Feedback already submitted. Thank you!"
	MsgEmptyFeedback        = "Please tell us a little about your experience."
	MsgPersistenceFailed    = "Something went wrong saving your feedback. Please try again."
	MsgSubmissionInFlight   = "Your feedback is already being submitted."
	MsgInvalidSentiment     = "Please choose positive, neutral or negative."
	MsgInvalidTransitionFmt = "cannot %s while feedback form is %s"
)

// FeedbackError is the only error type the workflow hands to callers. Terminal
// errors end the session; retryable ones leave it where it was.
type FeedbackError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Terminal  bool
	Err       error
}

func (e *FeedbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FeedbackError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err carries a FeedbackError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var fe *FeedbackError
	return errors.As(err, &fe) && fe.Code == code
}

func errMissingToken() *FeedbackError {
	return &FeedbackError{Code: ErrCodeMissingToken, Message: MsgUnableToLoad, Terminal: true}
}

func errInvalidToken(message string) *FeedbackError {
	return &FeedbackError{Code: ErrCodeInvalidToken, Message: message, Terminal: true}
}

func errAlreadySubmitted() *FeedbackError {
	return &FeedbackError{Code: ErrCodeAlreadySubmitted, Message: MsgAlreadySubmitted, Terminal: true}
}

func errLookupFailed(err error) *FeedbackError {
	return &FeedbackError{Code: ErrCodeLookupFailed, Message: MsgUnableToLoad, Terminal: true, Err: err}
}

func errEmptyFeedback() *FeedbackError {
	return &FeedbackError{Code: ErrCodeEmptyFeedback, Message: MsgEmptyFeedback}
}

func errPersistenceFailed(err error) *FeedbackError {
	return &FeedbackError{Code: ErrCodePersistenceFailed, Message: MsgPersistenceFailed, Retryable: true, Err: err}
}

func errSubmissionInFlight() *FeedbackError {
	return &FeedbackError{Code: ErrCodeSubmissionInFlight, Message: MsgSubmissionInFlight, Retryable: true}
}

func errInvalidSentiment(value string) *FeedbackError {
	return &FeedbackError{Code: ErrCodeInvalidSentiment, Message: MsgInvalidSentiment, Err: fmt.Errorf("sentiment %q", value)}
}

func errInvalidTransition(action string, state State) *FeedbackError {
	return &FeedbackError{Code: ErrCodeInvalidTransition, Message: fmt.Sprintf(MsgInvalidTransitionFmt, action, state)}
}
