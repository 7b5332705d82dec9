package domain

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrValidation    = errors.New("validation failed")
	ErrInternalDb    = errors.New("internal database error")
	ErrInternalCache = errors.New("internal cache error")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrParse         = errors.New("payload is not valid json")
	ErrSchema        = errors.New("payload does not match schema")
)

// RetrievalError reports a source that answered with a non-success status or
// could not be reached at all (StatusCode == 0).
type RetrievalError struct {
	Key        string
	StatusCode int
	Status     string
	Err        error
}

func (e *RetrievalError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: HTTP %d: %s", ErrRetrieval, e.Key, e.StatusCode, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", ErrRetrieval, e.Key, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", ErrRetrieval, e.Key, e.Status)
	}
}

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

func (e *RetrievalError) Unwrap() error { return e.Err }

type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrParse, e.Key, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

type SchemaError struct {
	Key string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSchema, e.Key, e.Err)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.Err }

type ErrorContainer struct {
	inner []error
}

func NewErrorContainer(e ...error) ErrorContainer {
	ec := ErrorContainer{inner: make([]error, 0)}
	ec.inner = append(ec.inner, e...)
	return ec
}

func (c *ErrorContainer) Add(e ...error) {
	c.inner = append(c.inner, e...)
}

func (c ErrorContainer) Error() string {
	errMessage := ""
	for _, err := range c.inner {
		errMessage = fmt.Sprintf("%s%s;\n", errMessage, err.Error())
	}
	return errMessage
}

func (c ErrorContainer) Unwrap() []error {
	return c.inner
}

// ServiceError separates the failure that decided the outcome of a call from
// the errors that were absorbed along the way (cache trouble, fallbacks).
type ServiceError struct {
	CriticalError     error
	NonCriticalErrors []error
}

func NewServiceError(critical error, nonCritical []error) *ServiceError {
	return &ServiceError{CriticalError: critical, NonCriticalErrors: nonCritical}
}

func (se *ServiceError) Error() string {
	var errMessage bytes.Buffer
	errMessage.WriteString("Service error(s)\n:")
	for _, err := range se.NonCriticalErrors {
		errMessage.WriteString(fmt.Sprintf("%s\n", err.Error()))
	}
	if se.CriticalError != nil {
		errMessage.WriteString(fmt.Sprintf("%s\n", se.CriticalError.Error()))
	}
	return errMessage.String()
}
