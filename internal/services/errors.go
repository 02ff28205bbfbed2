// Package services defines the business logic for site configuration and
// moments. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

var (
	// ErrInvalidConfigType is returned when a config operation names a
	// namespace other than "server" or "client".
	ErrInvalidConfigType = errors.New("config type must be server or client")

	// ErrMomentNotFound indicates that the referenced moment id does not
	// exist.
	ErrMomentNotFound = errors.New("moment not found")

	// ErrEmptyContent is returned when a create or update carries an empty
	// content field.
	ErrEmptyContent = errors.New("content is empty")
)
