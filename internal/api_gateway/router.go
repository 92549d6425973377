package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/api_gateway/handler"
	"github.com/leave-balance-ledger/internal/api_gateway/middleware"
)

type routeHandlers struct {
	leaveRequests *handler.LeaveRequestHandler
	leaveTypes    *handler.LeaveTypeHandler
	reports       *handler.ReportHandler
	rollover      *handler.RolloverHandler
}

// setupRouter configures API routes and middleware for the application.
// Every /api/v1 route requires a bearer token; writes are rate limited.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	auth gin.HandlerFunc,
	writeLimit gin.HandlerFunc,
	h routeHandlers,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	v1 := r.Group("/api/v1", auth)
	{
		requests := v1.Group("/leave-requests")
		{
			requests.POST("", writeLimit, h.leaveRequests.Create)
			requests.GET("/mine", h.leaveRequests.ListMine)
			requests.GET("/pending", h.leaveRequests.ListPending)
			requests.GET("/:id", h.leaveRequests.GetByID)
			requests.GET("/:id/history", h.leaveRequests.History)
			requests.POST("/:id/decision", writeLimit, h.leaveRequests.Decide)
			requests.POST("/:id/cancel", writeLimit, h.leaveRequests.Cancel)
		}

		leaveTypes := v1.Group("/leave-types")
		{
			leaveTypes.GET("", h.leaveTypes.List)
			leaveTypes.POST("", writeLimit, h.leaveTypes.Create)
			leaveTypes.GET("/:code", h.leaveTypes.Get)
			leaveTypes.PUT("/:code", writeLimit, h.leaveTypes.Update)
			leaveTypes.DELETE("/:code", writeLimit, h.leaveTypes.Remove)
			leaveTypes.POST("/:code/reactivate", writeLimit, h.leaveTypes.Reactivate)
		}

		balances := v1.Group("/balances")
		{
			balances.GET("/me", h.leaveRequests.MyBalances)
			balances.POST("/rollover", writeLimit, h.rollover.InitializeYear)
		}
		v1.GET("/employees/:id/balances", h.leaveRequests.EmployeeBalances)

		reports := v1.Group("/reports")
		{
			reports.GET("/leave-requests", h.reports.Report)
			reports.GET("/statistics", h.reports.Statistics)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
