package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/study-hub/internal/logger"
	"github.com/thereayou/study-hub/pkg/auth"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	return f.revoked[token], f.err
}

func (f *fakeBlacklist) Revoke(_ context.Context, token string, _ time.Duration) error {
	f.revoked[token] = true
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessionRouter(jwt *auth.JWTManager, bl TokenBlacklist) *gin.Engine {
	r := gin.New()
	r.Use(Session(jwt, bl, logger.Discard()))
	r.GET("/whoami", func(c *gin.Context) {
		ident := IdentityFrom(c)
		if ident == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": ident.UserID, "nickname": ident.Nickname})
	})
	r.GET("/private", RequireLogin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionResolvesIdentity(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	token, err := jwt.Generate(5, "bob")
	require.NoError(t, err)

	r := newSessionRouter(jwt, &fakeBlacklist{revoked: map[string]bool{}})

	w := get(r, "/whoami", token)
	assert.JSONEq(t, `{"userId":5,"nickname":"bob"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, get(r, "/private", token).Code)
}

func TestSessionAnonymousCases(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	token, err := jwt.Generate(5, "bob")
	require.NoError(t, err)

	cases := []struct {
		name  string
		bl    *fakeBlacklist
		token string
	}{
		{"no token", &fakeBlacklist{revoked: map[string]bool{}}, ""},
		{"garbage token", &fakeBlacklist{revoked: map[string]bool{}}, "not-a-jwt"},
		{"revoked token", &fakeBlacklist{revoked: map[string]bool{token: true}}, token},
		{"blacklist down", &fakeBlacklist{revoked: map[string]bool{}, err: errors.New("redis down")}, token},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newSessionRouter(jwt, tc.bl)

			assert.JSONEq(t, `{"anonymous":true}`, get(r, "/whoami", tc.token).Body.String())

			w := get(r, "/private", tc.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"login required"}`, w.Body.String())
		})
	}
}

func TestSessionReadsCookie(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	token, err := jwt.Generate(9, "carol")
	require.NoError(t, err)

	r := newSessionRouter(jwt, &fakeBlacklist{revoked: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"userId":9,"nickname":"carol"}`, w.Body.String())
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, logger.Discard())
	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(logger.Discard()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/healthz", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
