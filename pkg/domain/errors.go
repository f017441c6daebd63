package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the registry or store.
var ErrSessionNotFound = errors.New("session not found")

// ErrControllerDestroyed is returned by a session controller after Destroy.
var ErrControllerDestroyed = errors.New("controller destroyed")

// ErrInvalidBudget is returned when a budget range is not of the form "min-max".
var ErrInvalidBudget = errors.New("invalid budget range")

// ErrUnknownOption is returned when an option value has no binding in the log.
var ErrUnknownOption = errors.New("unknown option")

// ErrInvalidEmail is returned when the escalation email does not parse.
var ErrInvalidEmail = errors.New("invalid email address")
