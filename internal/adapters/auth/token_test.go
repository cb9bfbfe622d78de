package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userlist/internal/domain"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("userlist-client", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Parse and verify claims
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "userlist-client", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTIssuer_RequiresSubject(t *testing.T) {
	_, err := NewJWTIssuer("s").Issue("", time.Hour)
	require.Error(t, err)
}

func TestJWTVerifier_Verify(t *testing.T) {
	issuer := NewJWTIssuer("test-secret")
	valid, err := issuer.Issue("client-1", time.Hour)
	require.NoError(t, err)
	expired, err := issuer.Issue("client-1", -time.Minute)
	require.NoError(t, err)
	otherSecret, err := NewJWTIssuer("other-secret").Issue("client-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantSub string
		wantErr bool
	}{
		{name: "valid", token: valid, wantSub: "client-1"},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: otherSecret, wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
	}

	verifier := NewJWTVerifier("test-secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}
