package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// External Collaborator Interfaces
// Ticket và WhatsApp session được persist bởi hệ thống helpdesk bên ngoài,
// module automation chỉ tiêu thụ qua các interface này
// ===========================================================================

// TicketStore interface đọc/ghi ticket do hệ thống ticket sở hữu
// Update chỉ được dùng cho các trường bot (bot session state machine)
type TicketStore interface {
	// FindByID tìm ticket theo ID
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	// Update lưu các thay đổi trên ticket
	Update(ctx context.Context, ticket *models.Ticket) error
}

// WhatsAppSession thông tin connection dùng để enrich payload
type WhatsAppSession struct {
	// ID ID của session trong hệ thống
	ID uuid.UUID `json:"id"`

	// WhatsAppID số/ID WhatsApp của connection
	WhatsAppID string `json:"whatsapp_id"`

	// Status trạng thái connection (CONNECTED, DISCONNECTED, ...)
	Status string `json:"status"`
}

// SessionStore interface resolve sessionID -> thông tin connection
type SessionStore interface {
	// FindByID tìm session theo ID
	FindByID(ctx context.Context, id uuid.UUID) (*WhatsAppSession, error)
}
