package domain

import "errors"

var (
	// ErrLeadNotFound is returned when an operation targets a lead id that does not exist
	ErrLeadNotFound = errors.New("lead not found")

	// ErrBoardItemNotFound is returned when a traction board item does not exist
	ErrBoardItemNotFound = errors.New("board item not found")

	// ErrStoreUnavailable is returned when the underlying document store request fails
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidStage is returned for a stage outside the four pipeline stages
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidCredentials is returned when the admin email or PIN does not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound is returned when a session token is unknown, expired or revoked
	ErrSessionNotFound = errors.New("session not found")

	// ErrRateLimited is returned when too many login attempts were made
	ErrRateLimited = errors.New("too many attempts")
)
