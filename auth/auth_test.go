package auth

import (
	"flash-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsSafe!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestCompare_InvalidHash(t *testing.T) {
	hashes := []string{
		"plain-text",
		"$bcrypt$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=16$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$",
		"$argon2id$v=19$m=65536,t=3,p=2$not base64!$aGFzaA",
	}
	for _, hash := range hashes {
		_, err := ComparePassword("whatever", hash)
		require.ErrorIs(t, err, errors.ErrMalformedHash, hash)
	}
}

func TestCompare_Uses_Params_Of_The_Hash(t *testing.T) {
	req := require.New(t)
	cheap := Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

	hash, err := cheap.Hash("MyPassw0rdIsSafe!")
	req.NoError(err)
	req.Contains(hash, "$m=8192,t=1,p=1$")

	match, err := ComparePassword("MyPassw0rdIsSafe!", hash)
	req.NoError(err)
	req.True(match)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     Credentials
		wantErr bool
	}{
		{"Valid request", Credentials{"test@example.com", "ComplexPass123!"}, false},
		{"Invalid email", Credentials{"notanemail", "ComplexPass123!"}, true},
		{"Password too short", Credentials{"test@example.com", "Short1!"}, true},
		{"Missing digit", Credentials{"test@example.com", "NoDigitPass!"}, true},
		{"Missing special char", Credentials{"test@example.com", "NoSpecialChar123"}, true},
		{"Missing uppercase", Credentials{"test@example.com", "nouppercase123!"}, true},
		{"Password too long (edge case)", Credentials{"test@example.com", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegistrationValidation_Password_Errors_Are_Typed(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(ValidateRegister(Credentials{"test@example.com", "Short1!"}), errors.ErrInvalidPassword)
	req.ErrorIs(ValidateRegister(Credentials{"test@example.com", "nouppercase123!"}), errors.ErrInvalidPassword)
	req.NotErrorIs(ValidateRegister(Credentials{"notanemail", "ComplexPass123!"}), errors.ErrInvalidPassword)
}

func TestLoginValidation(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidateLogin(Credentials{"alice@x.com", "anything"}))
	req.Error(ValidateLogin(Credentials{"alice", "anything"}))
	req.Error(ValidateLogin(Credentials{"alice@x.com", ""}))
}

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("a-test-secret-that-is-long-enough", time.Hour)

	token, err := issuer.GenerateToken("user-1", "alice@x.com", []string{"user"})
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice@x.com", claims.Email)
	req.Equal([]string{"user"}, claims.Roles)
}

func TestToken_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("a-test-secret-that-is-long-enough", time.Hour)
	other := NewTokenIssuer("another-secret-entirely-different", time.Hour)
	expired := NewTokenIssuer("a-test-secret-that-is-long-enough", -time.Minute)

	foreign, err := other.GenerateToken("user-1", "alice@x.com", nil)
	req.NoError(err)
	_, err = issuer.ValidateToken(foreign)
	req.Error(err)

	stale, err := expired.GenerateToken("user-1", "alice@x.com", nil)
	req.NoError(err)
	_, err = issuer.ValidateToken(stale)
	req.Error(err)

	_, err = issuer.ValidateToken("not-a-jwt")
	req.Error(err)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
