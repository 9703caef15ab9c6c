// services/errors.go
package services

import (
	"errors"

	"holder-contest-system/store"
)

var (
	// ErrInvalidAddress rejects a malformed wallet before any oracle call.
	ErrInvalidAddress = errors.New("invalid wallet address")
	// ErrOracleUnavailable means price, decimals or balance could not be read. Retry later.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrBelowThreshold is the legitimate negative verdict.
	ErrBelowThreshold = errors.New("balance below threshold")
	// ErrNotFound covers unknown participants and handles.
	ErrNotFound = store.ErrNotFound

	ErrContestNotLive = errors.New("contest is not live")
	ErrNotVerified    = errors.New("participant is not verified")
	ErrInvalidDays    = errors.New("contest length must be between 1 and 36500 days")
)
