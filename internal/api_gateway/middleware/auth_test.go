package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(subject string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "hr-portal",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func newAuthRouter(issuer string) (*gin.Engine, *uuid.UUID) {
	var logBuffer bytes.Buffer
	captured := &uuid.UUID{}

	router := gin.New()
	router.Use(Auth(newBufferLogger(&logBuffer), testSecret, issuer))
	router.GET("/me", func(c *gin.Context) {
		id, ok := GetActorID(c)
		if ok {
			*captured = id
		}
		c.Status(http.StatusOK)
	})
	return router, captured
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employeeID := uuid.New()

	t.Run("AcceptsValidToken", func(t *testing.T) {
		router, captured := newAuthRouter("hr-portal")

		req, _ := http.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims(employeeID.String())))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, employeeID, *captured)
	})

	tests := []struct {
		name    string
		header  func(t *testing.T) string
		message string
	}{
		{
			name:    "MissingHeader",
			header:  func(t *testing.T) string { return "" },
			message: "Jeton d'authentification manquant",
		},
		{
			name:    "WrongScheme",
			header:  func(t *testing.T) string { return "Basic dXNlcjpwYXNz" },
			message: "Jeton d'authentification manquant",
		},
		{
			name: "WrongSecret",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(employeeID.String()))
			},
			message: "Jeton d'authentification invalide",
		},
		{
			name: "Expired",
			header: func(t *testing.T) string {
				claims := validClaims(employeeID.String())
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
			},
			message: "Jeton d'authentification expiré",
		},
		{
			name: "WrongAlgorithm",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims(employeeID.String()))
			},
			message: "Jeton d'authentification invalide",
		},
		{
			name: "WrongIssuer",
			header: func(t *testing.T) string {
				claims := validClaims(employeeID.String())
				claims.Issuer = "somewhere-else"
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
			},
			message: "Jeton d'authentification invalide",
		},
		{
			name: "SubjectNotAnEmployeeID",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("alice"))
			},
			message: "Jeton d'authentification invalide",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, captured := newAuthRouter("hr-portal")

			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if h := tc.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, uuid.Nil, *captured)

			var body map[string]map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body["error"]["code"])
			assert.Equal(t, tc.message, body["error"]["message"])
		})
	}

	t.Run("IssuerCheckDisabledWhenEmpty", func(t *testing.T) {
		router, captured := newAuthRouter("")
		claims := validClaims(employeeID.String())
		claims.Issuer = "anything"

		req, _ := http.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, employeeID, *captured)
	})
}

func TestGetActorID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActorID(c)
	assert.False(t, ok)

	c.Set(ActorIDKey, "not-a-uuid")
	_, ok = GetActorID(c)
	assert.False(t, ok)
}
