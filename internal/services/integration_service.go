package services

import (
	"context"
	"errors"

	"whatsdesk/internal/dto"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Integration Service
// Registry quản lý vòng đời integrations của tenant
// Validation theo type được làm ở đây trước khi chạm persistence
// ===========================================================================

// IntegrationService interface cho integration registry
type IntegrationService interface {
	// List lấy danh sách integrations của tenant
	List(ctx context.Context, tenantID uuid.UUID, req *dto.ListIntegrationsRequest) ([]models.Integration, int64, error)

	// Get lấy một integration theo ID
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Integration, error)

	// Create đăng ký integration mới
	Create(ctx context.Context, tenantID uuid.UUID, req *dto.CreateIntegrationRequest) (*models.Integration, error)

	// Update cập nhật integration, trường nil trong req giữ nguyên
	Update(ctx context.Context, tenantID, id uuid.UUID, req *dto.UpdateIntegrationRequest) (*models.Integration, error)

	// Delete xóa integration (soft delete)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// integrationService triển khai IntegrationService
type integrationService struct {
	integrations repositories.IntegrationRepository
	logger       *zap.Logger
}

// NewIntegrationService tạo instance mới của IntegrationService
func NewIntegrationService(integrations repositories.IntegrationRepository, logger *zap.Logger) IntegrationService {
	return &integrationService{
		integrations: integrations,
		logger:       logger,
	}
}

// List lấy danh sách integrations của tenant
func (s *integrationService) List(ctx context.Context, tenantID uuid.UUID, req *dto.ListIntegrationsRequest) ([]models.Integration, int64, error) {
	req.SetDefaults()

	opts := repositories.FindOptions{
		Offset:          req.Offset(),
		Limit:           req.Limit,
		IncludeInactive: req.IncludeInactive,
	}
	if req.Type != "" {
		opts.Filters = map[string]interface{}{"type": req.Type}
	}

	return s.integrations.FindByTenant(ctx, tenantID, opts)
}

// Get lấy một integration theo ID
func (s *integrationService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Integration, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return integration, nil
}

// Create đăng ký integration mới
func (s *integrationService) Create(ctx context.Context, tenantID uuid.UUID, req *dto.CreateIntegrationRequest) (*models.Integration, error) {
	integration := &models.Integration{
		TenantID: tenantID,
		Name:     req.Name,
		Type:     models.IntegrationType(req.Type),
		Config:   req.Config,
		Bot:      req.Bot,
		IsActive: true,
	}

	if err := validateIntegration(integration); err != nil {
		return nil, err
	}

	if err := s.integrations.Create(ctx, integration); err != nil {
		return nil, mapDBError(err)
	}

	s.logger.Info("integration created",
		zap.String("integration_id", integration.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("type", string(integration.Type)),
	)

	return integration, nil
}

// Update cập nhật integration
func (s *integrationService) Update(ctx context.Context, tenantID, id uuid.UUID, req *dto.UpdateIntegrationRequest) (*models.Integration, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapDBError(err)
	}

	if req.Name != nil {
		integration.Name = *req.Name
	}
	if req.Config != nil {
		integration.Config = *req.Config
	}
	if req.Bot != nil {
		integration.Bot = *req.Bot
	}
	if req.IsActive != nil {
		integration.IsActive = *req.IsActive
	}

	if err := validateIntegration(integration); err != nil {
		return nil, err
	}

	if err := s.integrations.Update(ctx, integration); err != nil {
		return nil, mapDBError(err)
	}

	return integration, nil
}

// Delete xóa integration
// Bindings trỏ tới integration đã xóa trở thành orphan và bị resolver bỏ qua
func (s *integrationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.integrations.Delete(ctx, tenantID, id); err != nil {
		return mapDBError(err)
	}

	s.logger.Info("integration deleted",
		zap.String("integration_id", id.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	return nil
}

// validateIntegration kiểm tra cấu hình theo type
// webhook/n8n/api/custom cần URL, typebot cần bot_url + bot_slug
func validateIntegration(i *models.Integration) error {
	if !models.IsKnownType(i.Type) {
		return apperrors.New(apperrors.ErrInvalidInput, "unknown integration type")
	}

	switch i.Type {
	case models.TypeTypebot:
		if i.Bot.BotURL == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "typebot integration requires bot_url")
		}
		if i.Bot.BotSlug == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "typebot integration requires bot_slug")
		}
	default:
		if i.Config.URL == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "integration requires a target url")
		}
	}

	return nil
}

// mapDBError chuyển lỗi GORM sang sentinel errors của ứng dụng
func mapDBError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicateEntry
	default:
		return err
	}
}
