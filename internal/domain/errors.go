package domain

import "errors"

var (
	// ErrSessionNotFound indicates the session id is unknown to the store
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidRequest indicates an empty or oversized user message
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
)
