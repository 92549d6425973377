package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit throttles requests per authenticated employee, falling back to the
// client IP for anonymous calls. rate uses the limiter format, e.g. "60-M".
func RateLimit(logger *slog.Logger, rate string) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), parsed)

	return limitergin.NewMiddleware(instance,
		limitergin.WithKeyGetter(rateLimitKey),
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("Rate limit exceeded", "key", rateLimitKey(c), "path", c.Request.URL.Path)
			abortWithError(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Trop de requêtes, veuillez réessayer plus tard")
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("Rate limiter failure", "path", c.Request.URL.Path, "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Erreur interne du serveur")
		}),
	), nil
}

func rateLimitKey(c *gin.Context) string {
	if actorID, ok := GetActorID(c); ok {
		return "actor:" + actorID.String()
	}
	return "ip:" + c.ClientIP()
}
