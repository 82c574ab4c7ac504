package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrSystem       = errors.New("system error")
)

// Kind classifies an error for the API layer
type Kind string

const (
	KindValidation            Kind = "VALIDATION"
	KindNotFound              Kind = "NOT_FOUND"
	KindDuplicate             Kind = "DUPLICATE"
	KindAccessDenied          Kind = "ACCESS_DENIED"
	KindInvalidAttributeValue Kind = "INVALID_ATTRIBUTE_VALUE"
	KindSystem                Kind = "SYSTEM"
)

// GenericSystemMessage is the only text a caller sees for unexpected failures
const GenericSystemMessage = "An unexpected error occurred"

// Error is a typed application error
type Error struct {
	Kind    Kind
	Message string
	// Fields maps a request field to its problem.
	Fields map[string]string
	// Data is returned to the caller alongside the message.
	Data map[string]interface{}
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindDuplicate
	case ErrAccessDenied:
		return e.Kind == KindAccessDenied
	case ErrValidation:
		return e.Kind == KindValidation || e.Kind == KindInvalidAttributeValue
	case ErrSystem:
		return e.Kind == KindSystem
	}
	return false
}

// HTTPStatus maps the kind onto a response status
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalidAttributeValue:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindAccessDenied:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// FieldValidation reports problems with individual request fields
func FieldValidation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// NotFound reports a missing resource by id
func NotFound(resource string, id interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found with id: %v", resource, id)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// AttributeNotFound reports an unknown attribute key in an organization
func AttributeNotFound(organizationID uint, key string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Attribute definition not found: %s", key),
		Data:    map[string]interface{}{"organizationId": organizationID, "key": key},
	}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

// DuplicateContact reports a phone already registered in the organization
func DuplicateContact(phone string, existingID uint) *Error {
	return &Error{
		Kind:    KindDuplicate,
		Message: fmt.Sprintf("Contact with phone number %s already exists", phone),
		Data: map[string]interface{}{
			"phoneNumber":       phone,
			"existingContactId": existingID,
		},
	}
}

func AccessDenied(message string) *Error {
	return &Error{Kind: KindAccessDenied, Message: message}
}

// InvalidAttributeValue reports a value that fails its declared type
func InvalidAttributeValue(key, dataType, value string, cause error) *Error {
	msg := fmt.Sprintf("Invalid value %q for attribute %s of type %s", value, key, dataType)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{
		Kind:    KindInvalidAttributeValue,
		Message: msg,
		Fields:  map[string]string{key: fmt.Sprintf("must be a valid %s", dataType)},
	}
}

// System wraps an unexpected failure
func System(message string, err error) *Error {
	return &Error{Kind: KindSystem, Message: message, Err: err}
}

// As returns the typed error inside err, wrapping anything else as a system error
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return System(GenericSystemMessage, err)
}

// KindOf returns the kind of err, SYSTEM for untyped errors and "" for nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}
