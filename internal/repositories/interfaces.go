package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Integration Repository Interface
// Quản lý CRUD cho integrations, tất cả operations đều tenant-scoped
// ===========================================================================

// IntegrationRepository interface cho integration data access
type IntegrationRepository interface {
	// FindByID tìm integration theo ID trong tenant
	// ID thuộc tenant khác trả về gorm.ErrRecordNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Integration, error)

	// FindByTenant lấy danh sách integrations trong tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID, opts FindOptions) ([]models.Integration, int64, error)

	// Create tạo integration mới
	Create(ctx context.Context, integration *models.Integration) error

	// Update cập nhật integration
	Update(ctx context.Context, integration *models.Integration) error

	// Delete soft delete integration trong tenant
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ===========================================================================
// Binding Repository Interfaces
// Ba scope độc lập: ticket, queue, session
// Unbind là hard delete, bindings không dùng soft delete để unique index
// của session binding không bị vướng rows đã xóa
// ===========================================================================

// TicketBindingRepository interface cho ticket-binding data access
type TicketBindingRepository interface {
	// FindByTicket lấy bindings của ticket (mặc định chỉ active)
	FindByTicket(ctx context.Context, ticketID uuid.UUID, includeInactive bool) ([]models.TicketBinding, error)

	// FindOrCreate bind idempotent: nếu đã tồn tại thì trả về row cũ
	FindOrCreate(ctx context.Context, binding *models.TicketBinding) (*models.TicketBinding, bool, error)

	// Update cập nhật binding
	Update(ctx context.Context, binding *models.TicketBinding) error

	// Delete unbind (hard delete)
	Delete(ctx context.Context, ticketID, integrationID uuid.UUID) error
}

// QueueBindingRepository interface cho queue-binding data access
type QueueBindingRepository interface {
	// FindByQueue lấy bindings của queue (mặc định chỉ active)
	FindByQueue(ctx context.Context, queueID uuid.UUID, includeInactive bool) ([]models.QueueBinding, error)

	// FindOrCreate bind idempotent theo (queue_id, integration_id)
	FindOrCreate(ctx context.Context, binding *models.QueueBinding) (*models.QueueBinding, bool, error)

	// Update cập nhật binding
	Update(ctx context.Context, binding *models.QueueBinding) error

	// Delete unbind (hard delete)
	Delete(ctx context.Context, queueID, integrationID uuid.UUID) error
}

// SessionBindingRepository interface cho session-binding data access
type SessionBindingRepository interface {
	// FindBySession lấy binding của session trong tenant (tối đa một row)
	// Trả về nil (không error) khi session chưa có binding
	FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID, includeInactive bool) (*models.SessionBinding, error)

	// Upsert tạo hoặc thay thế binding cho (session, tenant)
	// Invariant một-binding-mỗi-session được enforce bằng unique index:
	// bind session đã có binding sẽ update row cũ thay vì insert row mới
	Upsert(ctx context.Context, binding *models.SessionBinding) error

	// Delete unbind (hard delete)
	Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error
}
