package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := IssueToken(testSecret, userID, "ana@example.com", time.Hour)
	require.NoError(t, err)

	rec, c := doRequest(t, RequireAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, c.Get("user_id"))
	assert.Equal(t, "ana@example.com", c.Get("user_email"))
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, RequireAuth(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	rec, _ := doRequest(t, RequireAuth(testSecret), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken("other-secret", primitive.NewObjectID(), "ana@example.com", time.Hour)
	require.NoError(t, err)

	rec, _ := doRequest(t, RequireAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, primitive.NewObjectID(), "ana@example.com", -time.Minute)
	require.NoError(t, err)

	rec, _ := doRequest(t, RequireAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	rec, c := doRequest(t, OptionalAuth(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalAuthResolvesUser(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := IssueToken(testSecret, userID, "ana@example.com", time.Hour)
	require.NoError(t, err)

	rec, c := doRequest(t, OptionalAuth(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, c.Get("user_id"))
}
