// Package apperror holds the three failure kinds the client distinguishes:
// fetch failures end a page load, mutation failures are shown as alerts and
// validation failures stop a request before it is sent.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FetchError is a failed GET, either a non-2xx response or a network error.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed POST, PATCH or DELETE.
type MutationError struct {
	Action string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Action, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ValidationError lists field -> message pairs that blocked a submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func Fetch(resource string, err error) error {
	return &FetchError{Resource: resource, Err: err}
}

func Mutation(action string, err error) error {
	return &MutationError{Action: action, Err: err}
}

func Validation(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func IsMutation(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
