package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/domain/leaverequest"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
)

// ReportHandler serves filtered reports and statistics over leave requests
type ReportHandler struct {
	reporting service.ReportingService
	logger    *slog.Logger
}

func NewReportHandler(logger *slog.Logger, reporting service.ReportingService) *ReportHandler {
	return &ReportHandler{
		reporting: reporting,
		logger:    logger,
	}
}

func (h *ReportHandler) Report(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	reqs, err := h.reporting.Report(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithList(c, mapLeaveRequests(reqs), len(reqs))
}

func (h *ReportHandler) Statistics(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	stats, err := h.reporting.Statistics(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, stats)
}

func (h *ReportHandler) bindFilter(c *gin.Context) (leaverequest.Filter, bool) {
	var query ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid report query", "error", err)
		RespondBadRequest(c, "Paramètres de filtre invalides: "+err.Error())
		return leaverequest.Filter{}, false
	}

	from, err := parseOptionalDate(query.From)
	if err != nil {
		RespondError(c, h.logger, err)
		return leaverequest.Filter{}, false
	}
	to, err := parseOptionalDate(query.To)
	if err != nil {
		RespondError(c, h.logger, err)
		return leaverequest.Filter{}, false
	}

	filter := leaverequest.Filter{
		From:          from,
		To:            to,
		LeaveTypeCode: leavetype.NormalizeCode(query.LeaveTypeCode),
		Status:        shared.RequestStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
		Department:    strings.TrimSpace(query.Department),
	}
	if query.EmployeeID != "" {
		id, err := parseUUIDParam(query.EmployeeID, "Identifiant d'employé")
		if err != nil {
			RespondError(c, h.logger, err)
			return leaverequest.Filter{}, false
		}
		filter.EmployeeID = &id
	}
	return filter, true
}
