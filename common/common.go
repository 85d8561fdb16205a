package common

import (
	"errors"
	"strings"
)

var (
	// ErrNilPointer defines an error for a nil pointer
	ErrNilPointer = errors.New("nil pointer")
	// ErrNilArguments is a common error response to highlight that nils were passed in
	// when they should not have been
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrEmptyParams defines an error when a required parameter is empty
	ErrEmptyParams = errors.New("received empty parameter(s)")
	// ErrNotYetImplemented defines a common error across the code base that
	// alerts of a function that has not been completed or tied into main code
	ErrNotYetImplemented = errors.New("not yet implemented")
)

// multiError holds all the errors as a slice, this is unexported, so it forces
// inbuilt error handling.
type multiError struct {
	loadedErrors []error
}

// AppendError appends error in a more idiomatic way. This can start out as a
// standard error e.g. err := errors.New("random error")
// err = AppendError(err, errors.New("another random error"))
func AppendError(original, incoming error) error {
	errSliceP, ok := original.(*multiError)
	if incoming == nil {
		return original // Skip append - continue as normal.
	}
	if !ok {
		// This assumes that a standard error is passed in and we can want to
		// track it and add additional errors.
		errSliceP = &multiError{}
		if original != nil {
			errSliceP.loadedErrors = append(errSliceP.loadedErrors, original)
		}
	}
	if incomingSlice, ok := incoming.(*multiError); ok {
		// Prevent nesting if the incoming error is also a multiError
		errSliceP.loadedErrors = append(errSliceP.loadedErrors, incomingSlice.loadedErrors...)
	} else {
		errSliceP.loadedErrors = append(errSliceP.loadedErrors, incoming)
	}
	return errSliceP
}

// Error displays all errors comma separated
func (e *multiError) Error() string {
	allErrors := make([]string, len(e.loadedErrors))
	for x := range e.loadedErrors {
		allErrors[x] = e.loadedErrors[x].Error()
	}
	return strings.Join(allErrors, ", ")
}

// Unwrap returns all the loaded errors so errors.Is can inspect each of them
func (e *multiError) Unwrap() []error {
	return e.loadedErrors
}

// GetErrorCount returns the amount of errors loaded, zero for a nil error and
// one for a plain error
func GetErrorCount(err error) int {
	if err == nil {
		return 0
	}
	var e *multiError
	if errors.As(err, &e) {
		return len(e.loadedErrors)
	}
	return 1
}
