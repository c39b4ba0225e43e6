package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/account-service/internal/auth"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test@example.com", true},
		{"alice@x.com", true},
		{"first.last@sub.domain.org", true},
		{"invalid-email", false},
		{"no-dot@domain", false},
		{"@example.com", false},
		{"spaces in@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsValidEmail(tt.email))
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Test@123", true},
		{"Aa1aaaaa", true},
		{"NoSpecial1", true},
		{"weak", false},
		{"alllowercase1", false},
		{"ALLUPPER1", false},
		{"NoDigitsHere", false},
		{"Aa1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.IsValidPassword(tt.password))
		})
	}
}
