package models

import (
	"errors"
)

// Failure taxonomy for the request lifecycle. Every mutation failure is local
// to the single operation and leaves the request untouched; callers are
// expected to re-query and decide, nothing is retried here.
var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrValidation         = errors.New("models: validation failed")
	ErrPreconditionFailed = errors.New("models: operation not allowed from current state")
	ErrAlreadyAssigned    = errors.New("models: request already assigned to a transporter")
	ErrInvalidPricing     = errors.New("models: invalid pricing")
	ErrReceiptRequired    = errors.New("models: payment receipt required")
	ErrAlreadyDeclined    = errors.New("models: transporter declined this request")
	ErrForbidden          = errors.New("models: forbidden")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicatePhone     = errors.New("models: duplicate phone number")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrEmptyReturnUsed    = errors.New("models: empty return already consumed")
)
