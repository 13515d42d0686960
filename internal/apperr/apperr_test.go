package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"format", &FormatError{Input: "123", Reason: "bad"}, http.StatusBadRequest},
		{"security", &SecurityError{Platform: "mercadolivre"}, http.StatusForbidden},
		{"authorization", &AuthorizationError{Platform: "mercadolivre", Code: "access_denied"}, http.StatusBadRequest},
		{"exchange", &TokenExchangeError{Platform: "mercadolivre", StatusCode: 400}, http.StatusBadGateway},
		{"upstream", &UpstreamError{Platform: "mercadolivre", StatusCode: 500}, http.StatusBadGateway},
		{"authentication", &AuthenticationError{Platform: "mercadolivre"}, http.StatusUnauthorized},
		{"not found", &NotFoundError{What: "order"}, http.StatusNotFound},
		{"wrapped", fmt.Errorf("resolve: %w", &NotFoundError{What: "order"}), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	require.Equal(t, "mercadolivre authorization failed: authorization code not received",
		(&AuthorizationError{Platform: "mercadolivre"}).Error())
	require.Equal(t, "mercadolivre authorization failed: user denied",
		(&AuthorizationError{Platform: "mercadolivre", Code: "access_denied", Description: "user denied"}).Error())
	require.Equal(t, "mercadolivre api error: status=503: down",
		(&UpstreamError{Platform: "mercadolivre", StatusCode: 503, Body: "down"}).Error())
	require.Equal(t, "order not found: 123", (&NotFoundError{What: "order", Key: "123"}).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("exchange: %w", &TokenExchangeError{Platform: "mercadolivre", Err: cause})
	require.ErrorIs(t, err, cause)
	require.False(t, IsNotFound(err))
	require.True(t, IsAuthentication(&AuthenticationError{Platform: "x"}))
	require.True(t, IsFormat(fmt.Errorf("wrap: %w", &FormatError{Input: "x"})))
}
