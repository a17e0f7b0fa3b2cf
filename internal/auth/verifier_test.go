package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/auth/authtest"
)

func requireAuthError(t *testing.T, err error, kind auth.Kind, code, description string) {
	t.Helper()
	var authErr *auth.Error
	require.True(t, errors.As(err, &authErr), "expected *auth.Error, got %v", err)
	assert.Equal(t, kind, authErr.Kind, "kind")
	assert.Equal(t, code, authErr.Code, "code")
	assert.Equal(t, description, authErr.Description, "description")
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer(t)

	token := issuer.Token(t, "get:drinks-detail", "post:drinks")
	claims, err := issuer.Verifier().Verify(context.Background(), token, "post:drinks")
	require.NoError(t, err)
	assert.Equal(t, "auth0|barista", claims.Subject)
	assert.True(t, claims.HasPermission("get:drinks-detail"))
	assert.False(t, claims.HasPermission("delete:drinks"))
}

func TestVerifyWithoutPermissionOnlyAuthenticates(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer(t)

	_, err := issuer.Verifier().Verify(context.Background(), issuer.Sign(t, issuer.Claims(nil)), "")
	assert.NoError(t, err)
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer(t)
	other := authtest.NewIssuer(t)

	expired := issuer.Claims([]string{"get:drinks-detail"})
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAudience := issuer.Claims([]string{"get:drinks-detail"})
	wrongAudience.Audience = jwt.ClaimStrings{"another-api"}

	wrongIssuer := issuer.Claims([]string{"get:drinks-detail"})
	wrongIssuer.Issuer = "https://evil.example.com/"

	noExpiry := issuer.Claims([]string{"get:drinks-detail"})
	noExpiry.ExpiresAt = nil

	noKid := *issuer
	noKid.KeyID = ""

	unknownKid := *issuer
	unknownKid.KeyID = "rotated-away"

	tests := []struct {
		name        string
		token       string
		kind        auth.Kind
		code        string
		description string
	}{
		{"expired", issuer.Sign(t, expired), auth.KindTokenExpired, auth.CodeTokenExpired, "Token expired."},
		{"wrong audience", issuer.Sign(t, wrongAudience), auth.KindInvalidClaims, auth.CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer."},
		{"wrong issuer", issuer.Sign(t, wrongIssuer), auth.KindInvalidClaims, auth.CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer."},
		{"missing exp", issuer.Sign(t, noExpiry), auth.KindInvalidClaims, auth.CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer."},
		{"missing kid", noKid.Sign(t, issuer.Claims([]string{"get:drinks-detail"})), auth.KindUnknownSigningKey, auth.CodeInvalidHeader, "Authorization malformed."},
		{"unknown kid", unknownKid.Sign(t, issuer.Claims([]string{"get:drinks-detail"})), auth.KindUnknownSigningKey, auth.CodeInvalidHeader, "Unable to find the appropriate key."},
		{"foreign signature", other.Sign(t, issuer.Claims([]string{"get:drinks-detail"})), auth.KindTokenInvalid, auth.CodeInvalidHeader, "Unable to parse authentication token."},
		{"garbage", "not-a-token", auth.KindTokenInvalid, auth.CodeInvalidHeader, "Unable to parse authentication token."},
		{"no permissions claim", issuer.Sign(t, issuer.Claims(nil)), auth.KindPermissionDenied, auth.CodeInvalidClaims, "Permissions not included in JWT."},
		{"permission absent", issuer.Token(t, "get:drinks-detail"), auth.KindPermissionDenied, auth.CodeUnauthorized, "Permission not found."},
	}

	verifier := issuer.Verifier()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			permission := "get:drinks-detail"
			if tt.name == "permission absent" {
				permission = "delete:drinks"
			}
			claims, err := verifier.Verify(context.Background(), tt.token, permission)
			assert.Nil(t, claims)
			requireAuthError(t, err, tt.kind, tt.code, tt.description)
		})
	}
}

func TestVerifyRejectsHMACTokens(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, issuer.Claims([]string{"post:drinks"}))
	token.Header["kid"] = issuer.KeyID
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = issuer.Verifier().Verify(context.Background(), signed, "post:drinks")
	requireAuthError(t, err, auth.KindTokenInvalid, auth.CodeInvalidHeader, "Unable to parse authentication token.")
}

func TestVerifyLeewayToleratesSkew(t *testing.T) {
	t.Parallel()
	issuer := authtest.NewIssuer(t)

	claims := issuer.Claims([]string{"post:drinks"})
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))
	token := issuer.Sign(t, claims)

	verifier := auth.NewJWTVerifier(issuer.Keys(), issuer.Issuer, issuer.Audience, auth.WithLeeway(time.Minute))
	_, err := verifier.Verify(context.Background(), token, "post:drinks")
	assert.NoError(t, err)
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	_, err := auth.TokenFromHeader("")
	assert.Equal(t, "authorization_header_missing: Authorization header is expected.", err.Error())
	assert.Equal(t, "header_missing", auth.KindHeaderMissing.String())
	assert.Equal(t, "permission_denied", auth.KindPermissionDenied.String())
}
