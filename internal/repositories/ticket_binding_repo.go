package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// TicketBinding Repository GORM Implementation
// ===========================================================================

// ticketBindingRepo triển khai TicketBindingRepository với GORM
type ticketBindingRepo struct {
	db *gorm.DB
}

// NewTicketBindingRepository tạo instance mới của TicketBindingRepository
func NewTicketBindingRepository(db *gorm.DB) TicketBindingRepository {
	return &ticketBindingRepo{db: db}
}

// FindByTicket lấy bindings của ticket, preload integration
func (r *ticketBindingRepo) FindByTicket(ctx context.Context, ticketID uuid.UUID, includeInactive bool) ([]models.TicketBinding, error) {
	query := r.db.WithContext(ctx).
		Preload("Integration").
		Where("ticket_id = ?", ticketID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var bindings []models.TicketBinding
	err := query.Find(&bindings).Error
	return bindings, err
}

// FindOrCreate bind idempotent: binding đã tồn tại thì trả về row cũ, không insert
// Insert với ON CONFLICT DO NOTHING để hai bind đồng thời cùng cặp không lỗi duplicate
func (r *ticketBindingRepo) FindOrCreate(ctx context.Context, binding *models.TicketBinding) (*models.TicketBinding, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticket_id"}, {Name: "integration_id"}},
			DoNothing: true,
		}).
		Create(binding)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return binding, true, nil
	}

	var existing models.TicketBinding
	err := r.db.WithContext(ctx).
		Where("ticket_id = ? AND integration_id = ?", binding.TicketID, binding.IntegrationID).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// Update cập nhật binding
func (r *ticketBindingRepo) Update(ctx context.Context, binding *models.TicketBinding) error {
	return r.db.WithContext(ctx).Save(binding).Error
}

// Delete unbind (hard delete để không vướng unique index)
func (r *ticketBindingRepo) Delete(ctx context.Context, ticketID, integrationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("ticket_id = ? AND integration_id = ?", ticketID, integrationID).
		Delete(&models.TicketBinding{}).Error
}
