package models

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited        = errors.New("too many requests")
	ErrInvalidCodeFormat  = errors.New("code must be 8 latin letters or digits")
	ErrAlreadyLinked      = errors.New("chat is already linked")
	ErrNotLinked          = errors.New("chat is not linked")
	ErrCodeNotFound       = errors.New("code not found")
	ErrCodeExpired        = errors.New("code expired")
	ErrRemoteUnavailable  = errors.New("verification service unavailable")
	ErrRemoteRejected     = errors.New("verification service rejected the code")
	ErrStorageWriteFailed = errors.New("failed to persist links")
)

type AlreadyLinkedError struct {
	PlayerName string
}

func (e *AlreadyLinkedError) Error() string {
	return fmt.Sprintf("chat is already linked to %s", e.PlayerName)
}

func (e *AlreadyLinkedError) Is(target error) bool {
	return target == ErrAlreadyLinked
}

// RemoteRejectedError carries the reason reported by the verification
// service, shown to the user as is.
type RemoteRejectedError struct {
	Reason string
}

func (e *RemoteRejectedError) Error() string {
	if e.Reason == "" {
		return ErrRemoteRejected.Error()
	}
	return fmt.Sprintf("verification service rejected the code: %s", e.Reason)
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}
