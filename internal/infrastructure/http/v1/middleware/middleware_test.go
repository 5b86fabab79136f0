package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*appctx.UserContext

func (s stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery())
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": appctx.GetUserID(c.Request.Context())})
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperror.NewPaymentRejected(apperror.ReasonDuplicateKey, "duplicate"))
	})
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("db down")) })
	return r
}

func do(r http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	w, body := do(newEngine(), "/fail", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodePaymentRejected, body["code"])
	assert.Equal(t, apperror.ReasonDuplicateKey, body["details"].(map[string]any)["reason"])
}

func TestErrorHandlerHidesPlainErrors(t *testing.T) {
	w, body := do(newEngine(), "/plain", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "db down")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	w, body := do(newEngine(), "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
}

func TestAuth(t *testing.T) {
	validator := stubValidator{"good": {UserID: "clerk-1"}}

	t.Run("required", func(t *testing.T) {
		r := newEngine(Auth(validator))

		w, body := do(r, "/whoami", "good")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "clerk-1", body["user"])

		w, body = do(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperror.CodeUnauthorized, body["code"])

		w, _ = do(r, "/whoami", "bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("optional", func(t *testing.T) {
		r := newEngine(OptionalAuth(validator))

		w, body := do(r, "/whoami", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "", body["user"])

		w, _ = do(r, "/whoami", "bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	validator := stubValidator{
		"clerk":  {UserID: "clerk-1", Permissions: []string{string(security.PermissionDocumentsRead)}},
		"viewer": {UserID: "viewer-1"},
		"admin":  {UserID: "root", IsAdmin: true},
	}
	r := newEngine(OptionalAuth(validator), RequirePermission(security.PermissionDocumentsRead))

	w, _ := do(r, "/whoami", "clerk")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(r, "/whoami", "admin")
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := do(r, "/whoami", "viewer")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, body["code"])

	w, _ = do(r, "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	lim, err := NewRateLimiter("2-M")
	require.NoError(t, err)
	r := newEngine(RateLimit(lim))

	for i := 0; i < 2; i++ {
		w, _ := do(r, "/whoami", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := do(r, "/whoami", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apperror.CodeRateLimited, body["code"])
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestNewRateLimiterRejectsBadFormat(t *testing.T) {
	_, err := NewRateLimiter("lots")
	assert.Error(t, err)
}
