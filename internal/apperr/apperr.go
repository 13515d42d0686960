// Package apperr defines the error types surfaced to the operator.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// FormatError reports a scanned code that matches no accepted shape.
type FormatError struct {
	Input    string
	Platform string
	Reason   string
}

func (e *FormatError) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("invalid code %q for %s: %s", e.Input, e.Platform, e.Reason)
	}
	return fmt.Sprintf("invalid code %q: %s", e.Input, e.Reason)
}

// SecurityError reports an anti-forgery state mismatch on a callback.
type SecurityError struct {
	Platform string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("state mismatch on %s authorization callback", e.Platform)
}

// AuthorizationError reports that the provider denied consent.
type AuthorizationError struct {
	Platform    string
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	msg := e.Code
	if e.Description != "" {
		msg = e.Description
	}
	if msg == "" {
		msg = "authorization code not received"
	}
	return fmt.Sprintf("%s authorization failed: %s", e.Platform, msg)
}

// TokenExchangeError reports a failed code or refresh exchange.
type TokenExchangeError struct {
	Platform   string
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s token exchange failed: status=%d: %s", e.Platform, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s token exchange failed: %v", e.Platform, e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// UpstreamError reports an HTTP failure from a provider API.
type UpstreamError struct {
	Platform   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api error: status=%d: %s", e.Platform, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s api error: %v", e.Platform, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// AuthenticationError reports that no valid token is available.
type AuthenticationError struct {
	Platform string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s is not connected: reauthorize the platform", e.Platform)
}

// NotFoundError reports that a lookup matched nothing.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.What + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	var (
		formatErr   *FormatError
		securityErr *SecurityError
		authzErr    *AuthorizationError
		exchangeErr *TokenExchangeError
		upstreamErr *UpstreamError
		authnErr    *AuthenticationError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &securityErr):
		return http.StatusForbidden
	case errors.As(err, &authzErr):
		return http.StatusBadRequest
	case errors.As(err, &exchangeErr), errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &authnErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsFormat reports whether err is a FormatError.
func IsFormat(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}
