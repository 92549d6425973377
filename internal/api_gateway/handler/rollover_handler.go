package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
)

// RolloverHandler triggers bulk balance initialization
type RolloverHandler struct {
	rollover service.RolloverService
	logger   *slog.Logger
}

func NewRolloverHandler(logger *slog.Logger, rollover service.RolloverService) *RolloverHandler {
	return &RolloverHandler{
		rollover: rollover,
		logger:   logger,
	}
}

// InitializeYear seeds the balances of every active employee for the requested
// year. A partial failure still returns the report, with status 207.
func (h *RolloverHandler) InitializeYear(c *gin.Context) {
	var req RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Corps de requête invalide: "+err.Error())
		return
	}

	report, err := h.rollover.InitializeYear(c.Request.Context(), req.Year)
	if err != nil && report == nil {
		RespondError(c, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Error("Balance rollover partially failed", "year", req.Year, "error", err)
		RespondWithData(c, http.StatusMultiStatus, report)
		return
	}

	RespondOK(c, report)
}
