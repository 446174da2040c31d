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
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"trading-journal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type knownUsers map[uint]bool

func (k knownUsers) Exists(_ context.Context, id uint) (bool, error) {
	if id == 500 {
		return false, errors.New("db down")
	}
	return k[id], nil
}

func newEngine(issuer *auth.Issuer, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger), CORS("https://journal.example"))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	g := r.Group("/", JWTAuth(issuer, knownUsers{9: true}))
	g.GET("/me", func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour, time.Hour, auth.NewMemoryStore())
	r := newEngine(issuer, zap.NewNop())
	pair, err := issuer.Issue(context.Background(), 9)
	require.NoError(t, err)
	gone, err := issuer.Issue(context.Background(), 10)
	require.NoError(t, err)
	broken, err := issuer.Issue(context.Background(), 500)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Token " + pair.Access, http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.Refresh, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"deleted user", "Bearer " + gone.Access, http.StatusUnauthorized},
		{"lookup failure", "Bearer " + broken.Access, http.StatusInternalServerError},
		{"valid", "Bearer " + pair.Access, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":9}`, w.Body.String())
			}
		})
	}
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newEngine(auth.NewIssuer("secret", time.Hour, time.Hour, auth.NewMemoryStore()), zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.FilterMessage("http_request").Len())
	entry := logs.FilterMessage("http_request").All()[0]
	assert.Equal(t, "/open", entry.ContextMap()["path"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestCORS(t *testing.T) {
	r := newEngine(auth.NewIssuer("secret", time.Hour, time.Hour, auth.NewMemoryStore()), zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "https://journal.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://journal.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
