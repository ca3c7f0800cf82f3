package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want int
	}{
		{"not found", KindNotFound, http.StatusNotFound},
		{"conflict", KindConflict, http.StatusConflict},
		{"unauthorized", KindUnauthorized, http.StatusUnauthorized},
		{"bad request", KindBadRequest, http.StatusBadRequest},
		{"internal", KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"domain error", ErrUserNotFound, KindNotFound},
		{"wrapped domain error", fmt.Errorf("loading: %w", ErrDuplicateUser), KindConflict},
		{"wrap helper", Wrap(KindInternal, "internal server error", errors.New("boom")), KindInternal},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "user not found", MessageOf(ErrUserNotFound))
	// Untagged errors never leak their message.
	assert.Equal(t, "internal server error", MessageOf(errors.New("pq: connection refused")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("driver failure")
	err := Wrap(KindInternal, "internal server error", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindInternal, KindOf(err))
}
