package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$12$"))

	assert.True(t, VerifyPassword("Secret123", hash))
	assert.False(t, VerifyPassword("secret123", hash))
	assert.False(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("Secret123", ""))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "first.last@sub.domain.org", "a+b@c.io"}
	invalid := []string{"", "plain", "no@tld", "spaces in@example.com", "@example.com", "user@.com@x"}

	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Password1", true},
		{"Abcdefg1", true},
		{"Short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePasswordStrength(tt.password), tt.password)
	}
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Al"))
	assert.True(t, ValidateName("  Jo  "))
	assert.False(t, ValidateName(""))
	assert.False(t, ValidateName("   "))
	assert.False(t, ValidateName(" J "))
	assert.True(t, ValidateName(strings.Repeat("n", 255)))
	assert.False(t, ValidateName(strings.Repeat("n", 256)))
}
