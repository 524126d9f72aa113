package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "Ab!1", "Password must be at least 8 characters long."},
		{"no uppercase", "lowercase!1", "Password must contain uppercase and lowercase letters."},
		{"no lowercase", "UPPERCASE!1", "Password must contain uppercase and lowercase letters."},
		{"no special", "Passw0rd1", "Password must contain a special character."},
		{"valid", "Str0ng!Pass", ""},
		{"valid with braces", "Aa345678{}", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fail := ValidatePassword(tc.password)
			if tc.message == "" {
				require.Nil(t, fail)
				return
			}

			require.NotNil(t, fail)
			require.Equal(t, tc.message, fail.Message)
			require.Equal(t, KindValidation, fail.Kind)
			require.Equal(t, http.StatusBadRequest, fail.StatusCode())
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	require.NotEqual(t, "Str0ng!Pass", hash)

	require.True(t, VerifyPassword("Str0ng!Pass", hash))
	require.False(t, VerifyPassword("Wr0ng!Pass", hash))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	require.False(t, VerifyPassword("anything", "not-a-bcrypt-hash"))
	require.False(t, VerifyPassword("anything", ""))
}

func TestHashPasswordSalts(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	second, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, VerifyPassword("Str0ng!Pass", first))
	require.True(t, VerifyPassword("Str0ng!Pass", second))
}
