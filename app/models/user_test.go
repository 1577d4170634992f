package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValidate(t *testing.T) {
	day := 15
	badDay := 31

	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"Valid user", User{Name: "Piotr", Email: "piotr@example.com", Password: "secret123", Role: ROLE_USER, Status: STATUS_ACTIVE}, false},
		{"Valid billing day", User{Name: "Piotr", Email: "piotr@example.com", Password: "secret123", Role: ROLE_USER, Status: STATUS_ACTIVE, BillingDay: &day}, false},
		{"Billing day above 28", User{Name: "Piotr", Email: "piotr@example.com", Password: "secret123", Role: ROLE_USER, Status: STATUS_ACTIVE, BillingDay: &badDay}, true},
		{"Bad email", User{Name: "Piotr", Email: "not-an-email", Password: "secret123", Role: ROLE_USER, Status: STATUS_ACTIVE}, true},
		{"Short password", User{Name: "Piotr", Email: "piotr@example.com", Password: "abc", Role: ROLE_USER, Status: STATUS_ACTIVE}, true},
		{"Unknown role", User{Name: "Piotr", Email: "piotr@example.com", Password: "secret123", Role: "root", Status: STATUS_ACTIVE}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanBeBilled(t *testing.T) {
	u := User{}
	assert.False(t, u.CanBeBilled())

	day := 15
	u.BillingDay = &day
	assert.True(t, u.CanBeBilled())

	invalid := 29
	u.BillingDay = &invalid
	assert.False(t, u.CanBeBilled())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateAPIKey(t *testing.T) {
	u := User{}
	key, err := u.GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "sb_"))
	assert.Len(t, key, 3+64)
	assert.Equal(t, HashAPIKey(key), u.APIKeyHash)

	// Keys are unique per generation.
	second, err := u.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
}
