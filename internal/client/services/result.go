package services

import (
	"errors"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

// Result is the outcome of a remote operation. On failure Message holds a
// user-presentable text and Err the classified cause for errors.Is.
type Result[T any] struct {
	OK      bool
	Value   T
	Message string
	Err     error
}

// Succeed wraps a successful value.
func Succeed[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Fail classifies err into a failed Result.
func Fail[T any](err error) Result[T] {
	return Result[T]{Message: Classify(err), Err: err}
}

func failWithMessage[T any](err error, msg string) Result[T] {
	return Result[T]{Message: msg, Err: err}
}

const messageUnknown = "Something went wrong. Please try again."

// order matters: the first match wins
var messages = []struct {
	err error
	msg string
}{
	{common.ErrInvalidCredentials, "Invalid email or password."},
	{common.ErrAlreadyExists, "An account with this email already exists."},
	{common.ErrUnauthenticated, "Please sign in to use cloud backup."},
	{common.ErrForbidden, "This backup belongs to another account."},
	{common.ErrNotFound, "No backup found for this account."},
	{common.ErrCorrupted, "The backup is damaged and cannot be restored."},
	{common.ErrValidation, "Please check the information you entered."},
	{common.ErrTransportFailure, "Could not reach the backup service. Check your connection and try again."},
}

// Classify maps err to the user message of its taxonomy class.
func Classify(err error) string {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return messageUnknown
}
