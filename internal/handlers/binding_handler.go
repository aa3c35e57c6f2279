package handlers

import (
	"net/http"

	"whatsdesk/internal/dto"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/middleware"
	"whatsdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Binding Handler
// API bind/unbind integrations vào queue, session và ticket
// ===========================================================================

// BindingHandler xử lý các endpoint binding
type BindingHandler struct {
	bindingService services.BindingService
	logger         *zap.Logger
}

// NewBindingHandler tạo handler mới
func NewBindingHandler(bindingService services.BindingService, logger *zap.Logger) *BindingHandler {
	return &BindingHandler{
		bindingService: bindingService,
		logger:         logger,
	}
}

// handleError xử lý lỗi từ service
func (h *BindingHandler) handleError(c *gin.Context, err error) {
	h.logger.Error("binding handler error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(apperrors.StatusCode(err), dto.Error(apperrors.ErrorCode(err), err.Error()))
}

// parseParam parse một path param dạng UUID
func parseParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", name+" không hợp lệ"))
		return uuid.Nil, false
	}
	return id, true
}

// ===========================================================================
// Queue Bindings
// ===========================================================================

// BindQueue bind integration vào queue
// POST /api/v1/bindings/queues
func (h *BindingHandler) BindQueue(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	var req dto.BindQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.BindQueue(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(binding))
}

// ListQueueBindings lấy bindings của queue
// GET /api/v1/bindings/queues/:queueId
func (h *BindingHandler) ListQueueBindings(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	queueID, ok := parseParam(c, "queueId")
	if !ok {
		return
	}

	bindings, err := h.bindingService.ListQueueBindings(c.Request.Context(), tenantID, queueID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(bindings))
}

// UpdateQueueBinding cập nhật binding queue (bật/tắt, đổi overrides)
// PATCH /api/v1/bindings/queues/:queueId/:integrationId
func (h *BindingHandler) UpdateQueueBinding(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	queueID, ok := parseParam(c, "queueId")
	if !ok {
		return
	}
	integrationID, ok := parseParam(c, "integrationId")
	if !ok {
		return
	}

	var req dto.UpdateBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.UpdateQueueBinding(c.Request.Context(), tenantID, queueID, integrationID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(binding))
}

// UnbindQueue gỡ binding queue
// DELETE /api/v1/bindings/queues/:queueId/:integrationId
func (h *BindingHandler) UnbindQueue(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	queueID, ok := parseParam(c, "queueId")
	if !ok {
		return
	}
	integrationID, ok := parseParam(c, "integrationId")
	if !ok {
		return
	}

	if err := h.bindingService.UnbindQueue(c.Request.Context(), tenantID, queueID, integrationID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"unbound": true}))
}

// ===========================================================================
// Session Bindings
// ===========================================================================

// BindSession bind integration vào session WhatsApp
// POST /api/v1/bindings/sessions
func (h *BindingHandler) BindSession(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	var req dto.BindSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.BindSession(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(binding))
}

// GetSessionBinding lấy binding của session
// GET /api/v1/bindings/sessions/:sessionId
func (h *BindingHandler) GetSessionBinding(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	sessionID, ok := parseParam(c, "sessionId")
	if !ok {
		return
	}

	binding, err := h.bindingService.GetSessionBinding(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(binding))
}

// UpdateSessionBinding cập nhật binding session (bật/tắt, đổi gate, overrides)
// PATCH /api/v1/bindings/sessions/:sessionId
func (h *BindingHandler) UpdateSessionBinding(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	sessionID, ok := parseParam(c, "sessionId")
	if !ok {
		return
	}

	var req dto.UpdateSessionBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.UpdateSessionBinding(c.Request.Context(), tenantID, sessionID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(binding))
}

// UnbindSession gỡ binding session
// DELETE /api/v1/bindings/sessions/:sessionId
func (h *BindingHandler) UnbindSession(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	sessionID, ok := parseParam(c, "sessionId")
	if !ok {
		return
	}

	if err := h.bindingService.UnbindSession(c.Request.Context(), tenantID, sessionID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"unbound": true}))
}

// ===========================================================================
// Ticket Bindings
// ===========================================================================

// BindTicket bind integration trực tiếp vào ticket
// POST /api/v1/bindings/tickets/:ticketId
func (h *BindingHandler) BindTicket(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}

	var req dto.BindTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.BindTicket(c.Request.Context(), tenantID, ticketID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(binding))
}

// ListTicketBindings lấy bindings của ticket
// GET /api/v1/bindings/tickets/:ticketId
func (h *BindingHandler) ListTicketBindings(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}

	bindings, err := h.bindingService.ListTicketBindings(c.Request.Context(), tenantID, ticketID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(bindings))
}

// UpdateTicketBinding cập nhật binding ticket (bật/tắt, đổi overrides)
// PATCH /api/v1/bindings/tickets/:ticketId/:integrationId
func (h *BindingHandler) UpdateTicketBinding(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}
	integrationID, ok := parseParam(c, "integrationId")
	if !ok {
		return
	}

	var req dto.UpdateBindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	binding, err := h.bindingService.UpdateTicketBinding(c.Request.Context(), tenantID, ticketID, integrationID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(binding))
}

// UnbindTicket gỡ binding ticket
// DELETE /api/v1/bindings/tickets/:ticketId/:integrationId
func (h *BindingHandler) UnbindTicket(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	ticketID, ok := parseParam(c, "ticketId")
	if !ok {
		return
	}
	integrationID, ok := parseParam(c, "integrationId")
	if !ok {
		return
	}

	if err := h.bindingService.UnbindTicket(c.Request.Context(), tenantID, ticketID, integrationID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"unbound": true}))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes đăng ký routes
func (h *BindingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bindings := rg.Group("/bindings")
	{
		bindings.POST("/queues", h.BindQueue)
		bindings.GET("/queues/:queueId", h.ListQueueBindings)
		bindings.PATCH("/queues/:queueId/:integrationId", h.UpdateQueueBinding)
		bindings.DELETE("/queues/:queueId/:integrationId", h.UnbindQueue)

		bindings.POST("/sessions", h.BindSession)
		bindings.GET("/sessions/:sessionId", h.GetSessionBinding)
		bindings.PATCH("/sessions/:sessionId", h.UpdateSessionBinding)
		bindings.DELETE("/sessions/:sessionId", h.UnbindSession)

		bindings.POST("/tickets/:ticketId", h.BindTicket)
		bindings.GET("/tickets/:ticketId", h.ListTicketBindings)
		bindings.PATCH("/tickets/:ticketId/:integrationId", h.UpdateTicketBinding)
		bindings.DELETE("/tickets/:ticketId/:integrationId", h.UnbindTicket)
	}
}
