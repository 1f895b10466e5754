package tr064

import "errors"

var (
	// ErrUnauthorized is returned when the router rejects the credentials.
	ErrUnauthorized = errors.New("tr064: unauthorized")

	// ErrServiceNotFound is returned when the device description does not
	// list the requested service.
	ErrServiceNotFound = errors.New("tr064: service not found")

	// ErrMalformedResponse is returned for responses that are not a valid
	// SOAP envelope.
	ErrMalformedResponse = errors.New("tr064: malformed response")

	// ErrMissingArgument is returned by Arguments accessors for absent names.
	ErrMissingArgument = errors.New("tr064: missing argument")

	// ErrEmptyAddress is returned by New when no router address is set.
	ErrEmptyAddress = errors.New("tr064: router address is empty")
)
