package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func runAuthed(t *testing.T, token, spoofedUserID string) (called bool, seenUserID string, status int) {
	t.Helper()

	var ctx fasthttp.RequestCtx
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if spoofedUserID != "" {
		ctx.Request.Header.Set("X-User-ID", spoofedUserID)
	}

	handler := JWTAuth(testSecret, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		seenUserID = string(ctx.Request.Header.Peek("X-User-ID"))
	})
	handler(&ctx)
	return called, seenUserID, ctx.Response.StatusCode()
}

func TestJWTAuthStampsUserIDFromClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": "client-1"})

	called, userID, _ := runAuthed(t, token, "client-999")
	assert.True(t, called)
	assert.Equal(t, "client-1", userID)
}

func TestJWTAuthDropsSpoofedHeaderWithoutClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "someone"})

	called, userID, _ := runAuthed(t, token, "client-999")
	assert.True(t, called)
	assert.Empty(t, userID)
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	called, _, status := runAuthed(t, "", "client-999")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
}

func TestJWTAuthRejectsForgedToken(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "client-1"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)

	called, _, status := runAuthed(t, forged, "")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
}
