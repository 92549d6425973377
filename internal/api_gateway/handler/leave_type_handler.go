package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/domain/leavetype"
	"github.com/leave-balance-ledger/internal/leave_processor/service"
)

// LeaveTypeHandler handles HTTP requests for the leave type catalog
type LeaveTypeHandler struct {
	registry service.LeaveTypeRegistry
	logger   *slog.Logger
}

// NewLeaveTypeHandler creates a new leave type handler
func NewLeaveTypeHandler(logger *slog.Logger, registry service.LeaveTypeRegistry) *LeaveTypeHandler {
	return &LeaveTypeHandler{
		registry: registry,
		logger:   logger,
	}
}

var listFilters = map[string]leavetype.ActiveFilter{
	"active":   leavetype.FilterActive,
	"inactive": leavetype.FilterInactive,
	"all":      leavetype.FilterAll,
}

func toInput(req LeaveTypeRequest) service.LeaveTypeInput {
	return service.LeaveTypeInput{
		Code:                 req.Code,
		Name:                 req.Name,
		Description:          req.Description,
		AnnualQuota:          req.AnnualQuota,
		CountsWeekends:       req.CountsWeekends,
		MayOverflowToGeneral: req.MayOverflowToGeneral,
	}
}

func (h *LeaveTypeHandler) Create(c *gin.Context) {
	var req LeaveTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Corps de requête invalide: "+err.Error())
		return
	}

	lt, err := h.registry.Create(c.Request.Context(), toInput(req))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondCreated(c, lt)
}

// Update replaces the mutable attributes of the type named in the path
func (h *LeaveTypeHandler) Update(c *gin.Context) {
	var req LeaveTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Corps de requête invalide: "+err.Error())
		return
	}

	lt, err := h.registry.Update(c.Request.Context(), c.Param("code"), toInput(req))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, lt)
}

// Remove deletes the type, or deactivates it when requests still reference it
func (h *LeaveTypeHandler) Remove(c *gin.Context) {
	result, err := h.registry.Remove(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, result)
}

func (h *LeaveTypeHandler) Reactivate(c *gin.Context) {
	lt, err := h.registry.Reactivate(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, lt)
}

func (h *LeaveTypeHandler) Get(c *gin.Context) {
	lt, err := h.registry.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondOK(c, lt)
}

// List returns types filtered by ?status=active|inactive|all, active by default
func (h *LeaveTypeHandler) List(c *gin.Context) {
	var query LeaveTypeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Filtre invalide, attendu active, inactive ou all")
		return
	}

	types, err := h.registry.List(c.Request.Context(), listFilters[query.Status])
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	RespondWithList(c, types, len(types))
}
