package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorIDKey is the key under which the authenticated employee id is stored
const ActorIDKey = "actor_id"

// Auth validates an HS256 bearer token and stores its subject, the acting
// employee id, in the gin context. An empty issuer disables the issuer check.
func Auth(logger *slog.Logger, secret, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Jeton d'authentification manquant")
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, keyFunc); err != nil {
			logger.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			msg := "Jeton d'authentification invalide"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Jeton d'authentification expiré"
			}
			abortUnauthorized(c, msg)
			return
		}

		actorID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Warn("Bearer token subject is not an employee id", "subject", claims.Subject)
			abortUnauthorized(c, "Jeton d'authentification invalide")
			return
		}

		c.Set(ActorIDKey, actorID)
		c.Next()
	}
}

// GetActorID returns the authenticated employee id, if any
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ActorIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// abortWithError writes the same envelope as the handler package without importing it
func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
