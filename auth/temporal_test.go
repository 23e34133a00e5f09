package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelydev/apiUsuarios/auth"
)

func TestGenerateTemporaryPassword(t *testing.T) {
	t.Run("has fixed length and unambiguous characters", func(t *testing.T) {
		temporal, err := auth.GenerateTemporaryPassword()
		require.NoError(t, err)
		assert.Len(t, temporal, auth.TemporaryPasswordLength)
		assert.False(t, strings.ContainsAny(temporal, "0O1lI"), "got %q", temporal)
	})

	t.Run("does not repeat", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 200; i++ {
			temporal, err := auth.GenerateTemporaryPassword()
			require.NoError(t, err)
			_, dup := seen[temporal]
			require.False(t, dup, "duplicate temporary password %q", temporal)
			seen[temporal] = struct{}{}
		}
	})
}
