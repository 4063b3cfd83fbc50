// Package domain holds the core types and error taxonomy shared by all modules.
package domain

import "errors"

// Sentinel errors returned by services. Callers classify failures with
// errors.Is and map them to transport-level responses in one place.
var (
	// ErrDuplicateIdentity - username or email already registered
	ErrDuplicateIdentity = errors.New("username or email already taken")

	// ErrInvalidCredentials - unknown user or wrong password.
	// Deliberately indistinguishable so login attempts leak nothing.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpiredOrInvalid - token unknown, revoked, or past expiry
	ErrSessionExpiredOrInvalid = errors.New("session expired or invalid")

	// ErrInvalidTradeParameters - non-positive shares or price, bad side, empty symbol
	ErrInvalidTradeParameters = errors.New("invalid trade parameters")

	// ErrInsufficientShares - sell larger than the held position
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInsufficientFunds - buy would overdraw the cash balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound - requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable - the underlying store rejected the operation
	ErrStorageUnavailable = errors.New("storage unavailable")
)
