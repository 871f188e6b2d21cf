package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRegisterLoginLogout(t *testing.T) {
	a := setupTestAPI(t)

	w := a.PerformRequest(http.MethodPost, "/api/users", map[string]string{
		"email":      "Cook@Example.com",
		"username":   "cook",
		"first_name": "Ada",
		"last_name":  "Cook",
		"password":   "long-enough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode[map[string]interface{}](t, w)
	assert.Equal(t, "cook@example.com", user["email"])
	assert.Equal(t, false, user["is_subscribed"])
	assert.NotContains(t, user, "password")

	w = a.PerformRequest(http.MethodPost, "/api/auth/token/login", map[string]string{
		"email":    "cook@example.com",
		"password": "long-enough",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[types.TokenResponse](t, w).AuthToken
	require.NotEmpty(t, token)

	w = a.PerformRequestWithToken(http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cook", decode[types.UserResponse](t, w).Username)

	w = a.PerformRequestWithToken(http.MethodPost, "/api/auth/token/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	a := setupTestAPI(t)

	w := a.PerformRequest(http.MethodPost, "/api/users", map[string]string{
		"email":      "not-an-email",
		"username":   "bad name!",
		"first_name": "Ada",
		"last_name":  "Cook",
		"password":   "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "username")
	assert.Contains(t, body.Fields, "password")
}

func TestRegisterPasswordTooLongForBcrypt(t *testing.T) {
	a := setupTestAPI(t)

	w := a.PerformRequest(http.MethodPost, "/api/users", map[string]string{
		"email":      "cook@example.com",
		"username":   "cook",
		"first_name": "Ada",
		"last_name":  "Cook",
		"password":   strings.Repeat("p", 100),
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	body := decode[struct {
		Fields map[string][]string `json:"fields"`
	}](t, w)
	assert.Contains(t, body.Fields, "password")

	var count int64
	require.NoError(t, a.db.Table("users").Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDuplicate(t *testing.T) {
	a := setupTestAPI(t)
	body := map[string]string{
		"email":      "cook@example.com",
		"username":   "cook",
		"first_name": "Ada",
		"last_name":  "Cook",
		"password":   "long-enough",
	}

	require.Equal(t, http.StatusCreated, a.PerformRequest(http.MethodPost, "/api/users", body).Code)
	assert.Equal(t, http.StatusConflict, a.PerformRequest(http.MethodPost, "/api/users", body).Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	a := setupTestAPI(t)

	w := a.PerformRequest(http.MethodPost, "/api/auth/token/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := setupTestAPI(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/subscriptions"},
		{http.MethodPost, "/api/auth/token/logout"},
		{http.MethodPost, "/api/recipes"},
		{http.MethodGet, "/api/recipes/download_shopping_cart"},
		{http.MethodPost, "/api/recipes/1/favorite"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := a.PerformRequest(tt.method, tt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
