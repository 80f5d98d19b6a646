package netatmo

import (
	"errors"
	"fmt"
)

// Precondition and configuration errors. All of these indicate a caller bug
// or a bad configuration and are never retried.
var (
	// ErrMissingClientCredentials is returned by NewClient when the client
	// id or client secret is absent. No grant can work without them.
	ErrMissingClientCredentials = errors.New("netatmo: client id and client secret are required")

	// ErrMissingUserCredentials is returned by NewClient when the username
	// or password is absent. The password grant needs both.
	ErrMissingUserCredentials = errors.New("netatmo: username and password are required")

	// ErrMissingAccessToken is returned when a data request is attempted
	// before any successful authentication. Checked locally, never on the
	// wire.
	ErrMissingAccessToken = errors.New("netatmo: no access token, authenticate first")

	// ErrMissingRefreshToken is returned by AuthenticateByRefreshToken when
	// no refresh token was supplied.
	ErrMissingRefreshToken = errors.New("netatmo: no refresh token available")

	// ErrMissingHomeID is returned by GetHomeStatus without a home id.
	ErrMissingHomeID = errors.New("netatmo: home id is required")

	// ErrMissingMeasureParams is returned by GetMeasure when the device id,
	// scale or type is absent.
	ErrMissingMeasureParams = errors.New("netatmo: device id, scale and type are required")

	// ErrInvalidToken is returned when an authentication response is missing
	// the access token, refresh token or a positive expiry.
	ErrInvalidToken = errors.New("netatmo: malformed authentication response")
)

// RequestError reports a failed API call after the retry logic has run its
// course. Status is the HTTP status code, or 0 when the failure happened
// below the HTTP layer (timeout, connection refused).
type RequestError struct {
	Path    string
	Message string
	Status  int
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("netatmo: request %s failed (%d): %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("netatmo: request %s failed: %s", e.Path, e.Message)
}
