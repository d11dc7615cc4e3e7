package services

import "errors"

var (
	// ErrMissingFields is returned when required input is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrPasswordTooShort is returned for passwords under MinPasswordLength characters.
	ErrPasswordTooShort = errors.New("password is too short")

	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password is too long")

	// ErrUserExists is returned when the username or email is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned for both unknown users and wrong
	// passwords so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownLeague is returned for league keys the proxy does not serve.
	ErrUnknownLeague = errors.New("invalid league key")

	// ErrUpstream wraps any failure talking to the football data provider.
	ErrUpstream = errors.New("upstream provider error")
)
