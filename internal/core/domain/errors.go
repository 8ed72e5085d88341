package domain

import "errors"

// Account errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	// Usernames may not contain "@": login treats such identifiers as emails.
	ErrInvalidUsername    = errors.New("username must not contain @")
)

// Session and reset-code errors. ErrCodeInvalidOrExpired deliberately covers
// a wrong, an expired and an already used code.
var (
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenExpired         = errors.New("token expired")
	ErrCodeInvalidOrExpired = errors.New("code invalid or expired")
)

// Infrastructure errors. Callers may retry; neither is ever a success.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDeliveryFailed   = errors.New("notification delivery failed")
)
