package service

import "errors"

var (
	// ErrInvalidInput is returned for requests the services reject before
	// touching the store.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned when a username and password do
	// not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
