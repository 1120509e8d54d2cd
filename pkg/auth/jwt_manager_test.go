package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.Generate(42, "alice")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, "alice", claims.Nickname)

	exp, err := m.Expiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTManager("other", time.Hour).Generate(1, "a")
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.Generate(1, "a")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Hour).Verify(raw)
	assert.Error(t, err)
}

func TestUserIDRejectsBadSubject(t *testing.T) {
	claims := &SessionClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := claims.UserID()
	assert.Error(t, err)

	claims.Subject = "0"
	_, err = claims.UserID()
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	_, err := ExtractToken(r)
	assert.ErrorIs(t, err, ErrNoToken)

	r = httptest.NewRequest(http.MethodGet, "/studies/1/chat/ws?token=fromquery", nil)
	token, err := ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "fromquery", token)

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "fromcookie"})
	token, err = ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "fromcookie", token)

	r.Header.Set("Authorization", "Bearer fromheader")
	token, err = ExtractToken(r)
	require.NoError(t, err)
	assert.Equal(t, "fromheader", token)
}

func TestExtractTokenFromHeaderMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	_, err := ExtractTokenFromHeader(r)
	assert.Error(t, err)
}
