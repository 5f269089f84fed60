package oauth

import (
	"errors"
	"fmt"

	"github.com/golden-vcr/kickauth"
	"golang.org/x/oauth2"
)

var (
	// ErrExchangeFailed indicates that Kick rejected an authorization code: it may have
	// expired, already been redeemed, or been presented with the wrong code verifier. The
	// user must start over from the login page.
	ErrExchangeFailed = errors.New("failed to exchange authorization code for token")

	// ErrAppTokenFailed indicates that we could not obtain an app access token
	ErrAppTokenFailed = errors.New("failed to get app access token")

	// ErrRefreshFailed indicates that a refresh token was rejected (typically expired or
	// revoked): the session's credentials are no longer usable
	ErrRefreshFailed = errors.New("failed to refresh access token")

	// ErrRevokeFailed indicates that a revocation request did not succeed
	ErrRevokeFailed = errors.New("failed to revoke token")

	// ErrMissingRefreshToken is returned without making any request when asked to refresh
	// with an empty refresh token
	ErrMissingRefreshToken = errors.New("refresh token is required")
)

// wrap annotates err with the sentinel for the failed operation, converting errors
// that carry an HTTP response from Kick into a kickauth.UpstreamError
func wrap(sentinel error, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		err = &kickauth.UpstreamError{
			StatusCode: retrieveErr.Response.StatusCode,
			Body:       retrieveErr.Body,
		}
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
