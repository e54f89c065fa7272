package common

import "errors"

var (
	ErrPublicationNotFound = errors.New("scheduled publication not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrQueueNotFound       = errors.New("posting queue not found")
	ErrGroupNotFound       = errors.New("recurring group not found")
	ErrTerminalStatus      = errors.New("publication is in a terminal status")
	ErrAlreadyClaimed      = errors.New("publication already claimed for publishing")
	ErrAdapterNotFound     = errors.New("no publishing adapter for platform")
)
