package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoriesSurviveWrapping(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("add earning: %w", NewStorageError("add", cause))

	assert.True(t, IsStorage(err))
	assert.False(t, IsValidation(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("amountToken", "enter token and amount > 0"), http.StatusBadRequest},
		{"network", NewNetworkError("coingecko", stderrors.New("timeout")), http.StatusBadGateway},
		{"not found", NewNotFoundError("earning", "7"), http.StatusNotFound},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestValidationMessageIsUserFacing(t *testing.T) {
	err := NewValidationError("platformName", "enter platform and amount > 0")
	assert.Equal(t, "enter platform and amount > 0", Categorize(err).Message)
}
