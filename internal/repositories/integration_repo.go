package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Integration Repository GORM Implementation
// ===========================================================================

// integrationRepo triển khai IntegrationRepository với GORM
type integrationRepo struct {
	db *gorm.DB
}

// NewIntegrationRepository tạo instance mới của IntegrationRepository
func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepo{db: db}
}

// FindByID tìm integration theo ID trong tenant
// Query luôn kèm tenant_id để ID của tenant khác trả về record not found
func (r *integrationRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

// FindByTenant lấy danh sách integrations trong tenant
func (r *integrationRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID, opts FindOptions) ([]models.Integration, int64, error) {
	opts.SetDefaults()

	query := r.db.WithContext(ctx).
		Model(&models.Integration{}).
		Where("tenant_id = ?", tenantID)

	if !opts.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	for field, value := range opts.Filters {
		query = query.Where(field+" = ?", value)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var integrations []models.Integration
	err := query.
		Order(opts.GetOrderClause()).
		Offset(opts.Offset).
		Limit(opts.Limit).
		Find(&integrations).Error
	return integrations, total, err
}

// Create tạo integration mới
func (r *integrationRepo) Create(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Create(integration).Error
}

// Update cập nhật integration
func (r *integrationRepo) Update(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Save(integration).Error
}

// Delete soft delete integration trong tenant
func (r *integrationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Integration{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
