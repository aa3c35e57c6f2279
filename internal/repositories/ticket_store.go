package repositories

import (
	"context"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// Ticket / Session Store GORM Adapters
// Bảng tickets và whatsapp_sessions do hệ thống helpdesk sở hữu,
// adapters này chỉ đọc và chỉ ghi các trường bot của ticket
// ===========================================================================

// gormTicketStore triển khai TicketStore trên cùng database với helpdesk
type gormTicketStore struct {
	db *gorm.DB
}

// NewTicketStore tạo TicketStore đọc/ghi bảng tickets
func NewTicketStore(db *gorm.DB) TicketStore {
	return &gormTicketStore{db: db}
}

// FindByID tìm ticket theo ID
func (s *gormTicketStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Update lưu các thay đổi trên ticket (chỉ các trường bot được module này sửa)
func (s *gormTicketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	return s.db.WithContext(ctx).Save(ticket).Error
}

// gormSessionStore triển khai SessionStore đọc bảng whatsapp_sessions
type gormSessionStore struct {
	db *gorm.DB
}

// NewSessionStore tạo SessionStore đọc bảng whatsapp_sessions
func NewSessionStore(db *gorm.DB) SessionStore {
	return &gormSessionStore{db: db}
}

// FindByID tìm session theo ID
func (s *gormSessionStore) FindByID(ctx context.Context, id uuid.UUID) (*WhatsAppSession, error) {
	var session WhatsAppSession
	err := s.db.WithContext(ctx).
		Table("whatsapp_sessions").
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}
