package handlers

import (
	"net/http"

	"whatsdesk/internal/automation"
	"whatsdesk/internal/dto"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/middleware"
	"whatsdesk/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ===========================================================================
// Automation Handler
// API debug và trigger automation cho ticket:
// - Preview integrations sẽ áp dụng
// - Trigger dispatch thủ công, xem report đầy đủ
// - Đẩy inbound message qua bot state machine
// ===========================================================================

// AutomationHandler xử lý các endpoint automation
type AutomationHandler struct {
	automationService services.AutomationService
	logger            *zap.Logger
}

// NewAutomationHandler tạo handler mới
func NewAutomationHandler(automationService services.AutomationService, logger *zap.Logger) *AutomationHandler {
	return &AutomationHandler{
		automationService: automationService,
		logger:            logger,
	}
}

// handleError xử lý lỗi từ service
func (h *AutomationHandler) handleError(c *gin.Context, err error) {
	h.logger.Error("automation handler error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(apperrors.StatusCode(err), dto.Error(apperrors.ErrorCode(err), err.Error()))
}

// ===========================================================================
// Handlers
// ===========================================================================

// Preview trả về các integrations sẽ áp dụng cho ticket
// GET /api/v1/tickets/:ticketId/automations
func (h *AutomationHandler) Preview(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}

	resolved, err := h.automationService.ResolvePreview(c.Request.Context(), tenantID, ticketID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(resolved))
}

// Trigger dispatch thủ công, trả về report đầy đủ
// POST /api/v1/tickets/:ticketId/automations/dispatch
func (h *AutomationHandler) Trigger(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}

	var req dto.TriggerDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	report, err := h.automationService.ManualTrigger(
		c.Request.Context(),
		tenantID,
		ticketID,
		automation.Event(req.Event),
		automation.Extras(req.Extras),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(report))
}

// Inbound đẩy message khách gửi qua bot state machine
// POST /api/v1/tickets/:ticketId/automations/inbound
// Endpoint nội bộ cho messaging layer, không dành cho admin console
func (h *AutomationHandler) Inbound(c *gin.Context) {
	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}

	var req dto.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	result, err := h.automationService.HandleInboundMessage(c.Request.Context(), ticketID, req.Content)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(result))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes đăng ký routes
func (h *AutomationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tickets := rg.Group("/tickets/:ticketId/automations")
	{
		tickets.GET("", h.Preview)
		tickets.POST("/dispatch", h.Trigger)
		tickets.POST("/inbound", h.Inbound)
	}
}
