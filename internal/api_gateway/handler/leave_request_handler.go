package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leave-balance-ledger/internal/api_gateway/middleware"
	"github.com/leave-balance-ledger/internal/domain/shared"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
)

// LeaveRequestHandler handles HTTP requests for the leave request lifecycle
type LeaveRequestHandler struct {
	lifecycle service.LeaveLifecycleService
	logger    *slog.Logger
}

// NewLeaveRequestHandler creates a new leave request handler
func NewLeaveRequestHandler(logger *slog.Logger, lifecycle service.LeaveLifecycleService) *LeaveRequestHandler {
	return &LeaveRequestHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// actor returns the authenticated employee or writes a 401
func actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetActorID(c)
	if !ok {
		RespondUnauthorized(c, "")
	}
	return id, ok
}

// Create submits a leave request on behalf of the authenticated employee
func (h *LeaveRequestHandler) Create(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Corps de requête invalide: "+err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	created, err := h.lifecycle.CreateRequest(c.Request.Context(), service.CreateLeaveCommand{
		EmployeeID:    actorID,
		StartDate:     start,
		EndDate:       end,
		DurationMode:  shared.ParseDurationMode(req.DurationMode),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		LeaveTypeCode: req.LeaveTypeCode,
		Reason:        req.Reason,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapLeaveRequestToResponse(created))
}

// GetByID returns one leave request
func (h *LeaveRequestHandler) GetByID(c *gin.Context) {
	id, err := parseUUIDParam(c.Param("id"), "Identifiant de demande")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	req, err := h.lifecycle.GetRequest(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapLeaveRequestToResponse(req))
}

// ListMine returns the authenticated employee's requests, newest first
func (h *LeaveRequestHandler) ListMine(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	reqs, err := h.lifecycle.ListEmployeeRequests(c.Request.Context(), actorID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithList(c, mapLeaveRequests(reqs), len(reqs))
}

// ListPending returns requests awaiting a decision, excluding the approver's own
func (h *LeaveRequestHandler) ListPending(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	reqs, err := h.lifecycle.ListPending(c.Request.Context(), actorID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithList(c, mapLeaveRequests(reqs), len(reqs))
}

// Decide approves or rejects a pending request
func (h *LeaveRequestHandler) Decide(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	id, err := parseUUIDParam(c.Param("id"), "Identifiant de demande")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid decision body", "error", err)
		RespondBadRequest(c, "Corps de requête invalide: "+err.Error())
		return
	}

	decided, err := h.lifecycle.Decide(c.Request.Context(), id, shared.DecisionOutcome(req.Outcome), actorID, strings.TrimSpace(req.Comment))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapLeaveRequestToResponse(decided))
}

// Cancel withdraws one of the authenticated employee's requests
func (h *LeaveRequestHandler) Cancel(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}

	id, err := parseUUIDParam(c.Param("id"), "Identifiant de demande")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	cancelled, err := h.lifecycle.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapLeaveRequestToResponse(cancelled))
}

// History returns the status transitions of a request, newest first
func (h *LeaveRequestHandler) History(c *gin.Context) {
	id, err := parseUUIDParam(c.Param("id"), "Identifiant de demande")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	entries, err := h.lifecycle.History(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithList(c, entries, len(entries))
}

// MyBalances returns the authenticated employee's balances per type and year
func (h *LeaveRequestHandler) MyBalances(c *gin.Context) {
	actorID, ok := actor(c)
	if !ok {
		return
	}
	h.respondBalances(c, actorID)
}

// EmployeeBalances returns the balances of the employee named in the path
func (h *LeaveRequestHandler) EmployeeBalances(c *gin.Context) {
	id, err := parseUUIDParam(c.Param("id"), "Identifiant d'employé")
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	h.respondBalances(c, id)
}

func (h *LeaveRequestHandler) respondBalances(c *gin.Context, employeeID uuid.UUID) {
	summaries, err := h.lifecycle.GetBalances(c.Request.Context(), employeeID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondWithList(c, summaries, len(summaries))
}
