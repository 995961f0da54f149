package apperror

import "errors"

// Kind describes a stable error category that handlers map to HTTP status codes.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindForbidden         Kind = "forbidden"
)

// Error is a typed error with a stable Kind and a message that is safe to return to clients.
// Fields carries optional field-level detail, e.g. {"dates": "end_date must be on or after start_date"}.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string, err error) error          { return New(KindNotFound, msg, err) }
func Validation(msg string, err error) error        { return New(KindValidation, msg, err) }
func Conflict(msg string, err error) error          { return New(KindConflict, msg, err) }
func InvalidTransition(msg string, err error) error { return New(KindInvalidTransition, msg, err) }
func Forbidden(msg string, err error) error         { return New(KindForbidden, msg, err) }

// FieldValidation builds a validation error for a single field.
func FieldValidation(field, msg string) error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: map[string]string{field: msg}}
}

// ValidationFields builds a validation error carrying several field messages.
func ValidationFields(msg string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// FieldsOf returns the field detail of the first *Error in the chain.
func FieldsOf(err error) map[string]string {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Fields
}
