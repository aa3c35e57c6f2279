package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===========================================================================
// SessionBinding Repository GORM Implementation
// Invariant: tối đa một binding cho mỗi (session, tenant)
// Enforce ở tầng persistence bằng unique index + ON CONFLICT upsert
// để sống sót qua các bind attempts đồng thời
// ===========================================================================

// sessionBindingRepo triển khai SessionBindingRepository với GORM
type sessionBindingRepo struct {
	db *gorm.DB
}

// NewSessionBindingRepository tạo instance mới của SessionBindingRepository
func NewSessionBindingRepository(db *gorm.DB) SessionBindingRepository {
	return &sessionBindingRepo{db: db}
}

// FindBySession lấy binding của session trong tenant
// Trả về nil khi session chưa có binding (không phải error)
func (r *sessionBindingRepo) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID, includeInactive bool) (*models.SessionBinding, error) {
	query := r.db.WithContext(ctx).
		Preload("Integration").
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var binding models.SessionBinding
	if err := query.First(&binding).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

// Upsert tạo hoặc thay thế binding cho (session, tenant)
// Session đã có binding: row cũ được update thay vì insert row thứ hai
func (r *sessionBindingRepo) Upsert(ctx context.Context, binding *models.SessionBinding) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"integration_id",
				"trigger_only_without_queue",
				"overrides",
				"is_active",
				"updated_at",
			}),
		}).
		Create(binding).Error
}

// Delete unbind (hard delete)
func (r *sessionBindingRepo) Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Delete(&models.SessionBinding{}).Error
}
