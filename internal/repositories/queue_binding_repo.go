package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// QueueBinding Repository GORM Implementation
// ===========================================================================

// queueBindingRepo triển khai QueueBindingRepository với GORM
type queueBindingRepo struct {
	db *gorm.DB
}

// NewQueueBindingRepository tạo instance mới của QueueBindingRepository
func NewQueueBindingRepository(db *gorm.DB) QueueBindingRepository {
	return &queueBindingRepo{db: db}
}

// FindByQueue lấy bindings của queue, preload integration
func (r *queueBindingRepo) FindByQueue(ctx context.Context, queueID uuid.UUID, includeInactive bool) ([]models.QueueBinding, error) {
	query := r.db.WithContext(ctx).
		Preload("Integration").
		Where("queue_id = ?", queueID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var bindings []models.QueueBinding
	err := query.Find(&bindings).Error
	return bindings, err
}

// FindOrCreate bind idempotent theo (queue_id, integration_id)
// Insert với ON CONFLICT DO NOTHING để hai bind đồng thời cùng cặp không lỗi duplicate
func (r *queueBindingRepo) FindOrCreate(ctx context.Context, binding *models.QueueBinding) (*models.QueueBinding, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "queue_id"}, {Name: "integration_id"}},
			DoNothing: true,
		}).
		Create(binding)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected > 0 {
		return binding, true, nil
	}

	var existing models.QueueBinding
	err := r.db.WithContext(ctx).
		Where("queue_id = ? AND integration_id = ?", binding.QueueID, binding.IntegrationID).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// Update cập nhật binding
func (r *queueBindingRepo) Update(ctx context.Context, binding *models.QueueBinding) error {
	return r.db.WithContext(ctx).Save(binding).Error
}

// Delete unbind (hard delete)
func (r *queueBindingRepo) Delete(ctx context.Context, queueID, integrationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("queue_id = ? AND integration_id = ?", queueID, integrationID).
		Delete(&models.QueueBinding{}).Error
}
