package auth_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/kelydev/apiUsuarios/auth"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want auth.Kind
	}{
		{"validation", oops.Code("X").Wrap(auth.ErrValidation), auth.KindValidation},
		{"not found", fmt.Errorf("lookup: %w", auth.ErrNotFound), auth.KindNotFound},
		{"unauthorized", oops.Code("X").Wrapf(auth.ErrUnauthorized, "bad"), auth.KindUnauthorized},
		{"conflict", auth.ErrConflict, auth.KindConflict},
		{"invalid state", oops.Code("Y").Wrap(oops.Code("X").Wrap(auth.ErrInvalidState)), auth.KindInvalidState},
		{"internal", errors.New("boom"), auth.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "invalid_state", auth.KindInvalidState.String())
	assert.Equal(t, "internal", auth.Kind(99).String())
}

func TestCode(t *testing.T) {
	assert.Equal(t, "LOGIN_FAILED", auth.Code(oops.Code("LOGIN_FAILED").Errorf("x")))
	assert.Empty(t, auth.Code(errors.New("plain")))
}
