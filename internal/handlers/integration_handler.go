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
// Integration Handler
// API quản lý integrations: CRUD + test connection
// Tenant lấy từ JWT claims, không bao giờ từ request
// ===========================================================================

// IntegrationHandler xử lý các endpoint integration
type IntegrationHandler struct {
	integrationService services.IntegrationService
	automationService  services.AutomationService
	logger             *zap.Logger
}

// NewIntegrationHandler tạo handler mới
func NewIntegrationHandler(
	integrationService services.IntegrationService,
	automationService services.AutomationService,
	logger *zap.Logger,
) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
		automationService:  automationService,
		logger:             logger,
	}
}

// handleError xử lý lỗi từ service và trả về response phù hợp
func (h *IntegrationHandler) handleError(c *gin.Context, err error) {
	h.logger.Error("integration handler error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	c.JSON(apperrors.StatusCode(err), dto.Error(apperrors.ErrorCode(err), err.Error()))
}

// ===========================================================================
// Handlers
// ===========================================================================

// List lấy danh sách integrations
// GET /api/v1/integrations?type=webhook&page=1&limit=20
func (h *IntegrationHandler) List(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	var req dto.ListIntegrationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}
	req.SetDefaults()

	integrations, total, err := h.integrationService.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessWithMeta(
		integrations,
		dto.NewMeta(req.Page, req.Limit, total),
	))
}

// Get lấy chi tiết integration
// GET /api/v1/integrations/:id
func (h *IntegrationHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Integration ID không hợp lệ"))
		return
	}

	integration, err := h.integrationService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(integration))
}

// Create đăng ký integration mới
// POST /api/v1/integrations
func (h *IntegrationHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	var req dto.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	integration, err := h.integrationService.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.Success(integration))
}

// Update cập nhật integration
// PATCH /api/v1/integrations/:id
func (h *IntegrationHandler) Update(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Integration ID không hợp lệ"))
		return
	}

	var req dto.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	integration, err := h.integrationService.Update(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(integration))
}

// Delete xóa integration
// DELETE /api/v1/integrations/:id
func (h *IntegrationHandler) Delete(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Integration ID không hợp lệ"))
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"deleted": true}))
}

// Test gọi thử integration với payload synthetic
// POST /api/v1/integrations/:id/test
func (h *IntegrationHandler) Test(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.Error("UNAUTHORIZED", "Authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Integration ID không hợp lệ"))
		return
	}

	result, err := h.automationService.TestConnection(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Test thất bại vẫn là 200, kết quả nằm trong body
	c.JSON(http.StatusOK, dto.Success(result))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes đăng ký routes
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.GET("", h.List)
		integrations.POST("", h.Create)
		integrations.GET("/:id", h.Get)
		integrations.PATCH("/:id", h.Update)
		integrations.DELETE("/:id", h.Delete)
		integrations.POST("/:id/test", h.Test)
	}
}
