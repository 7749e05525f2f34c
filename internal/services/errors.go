// Package services defines the business logic for crop listings, buyer
// interests, and user records. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// to HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrInvalidID is returned when a supplied identifier is not a valid
	// ObjectID hex string.
	ErrInvalidID = errors.New("invalid id")

	// ErrCropNotFound indicates that the requested crop does not exist.
	ErrCropNotFound = errors.New("crop not found")

	// ErrInterestNotFound indicates that the requested interest does not
	// exist within the crop's interests.
	ErrInterestNotFound = errors.New("interest not found")

	// ErrDuplicateInterest is returned when a user submits a second interest
	// for the same crop.
	ErrDuplicateInterest = errors.New("interest already submitted for this crop")

	// ErrInvalidStatus is returned when a status transition targets a value
	// outside pending/accepted/rejected.
	ErrInvalidStatus = errors.New("status must be one of: pending, accepted, rejected")

	// ErrMissingCropID is returned when an interest payload carries no crop id.
	ErrMissingCropID = errors.New("cropId is required")

	// ErrMissingEmail is returned when a payload that is keyed by email
	// carries no email.
	ErrMissingEmail = errors.New("email is required")
)
