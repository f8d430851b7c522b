package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token string
	err   error
	last  Identity
}

func (f *fakeTokens) Generate(_ context.Context, identity Identity) (string, error) {
	f.last = identity
	return f.token, f.err
}

func TestLogin_Success(t *testing.T) {
	tokens := &fakeTokens{token: "signed-token"}
	svc, err := NewService("admin", "s3cret", tokens)
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, "admin", res.Identity.Username)
	assert.True(t, res.Identity.IsAdmin)
	assert.Equal(t, res.Identity, tokens.last)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, err := NewService("admin", "s3cret", &fakeTokens{token: "t"})
	require.NoError(t, err)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "s3cret"},
		{"both wrong", "root", "nope"},
		{"empty username", "", "s3cret"},
		{"empty password", "admin", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.username, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_TokenGenerationFailure(t *testing.T) {
	wantErr := errors.New("sign failed")
	svc, err := NewService("admin", "s3cret", &fakeTokens{err: wantErr})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "admin", "s3cret")
	assert.ErrorIs(t, err, wantErr)
}

func TestVerify(t *testing.T) {
	tokens := &fakeTokens{token: "t"}
	svc, err := NewService("admin", "s3cret", tokens)
	require.NoError(t, err)

	identity, err := svc.Verify(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", identity.Username)
	assert.True(t, identity.IsAdmin)
	// Verify не трогает генератор токенов.
	assert.Equal(t, Identity{}, tokens.last)

	_, err = svc.Verify(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
