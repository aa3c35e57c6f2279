package models

import (
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Ticket (Phần liên quan đến automation/bot)
// Persistence của ticket thuộc hệ thống helpdesk bên ngoài, module này chỉ
// đọc/ghi các trường bot thông qua TicketStore interface
// Các trường bot chỉ được Bot Session State Machine và hand-off của agent sửa
// ===========================================================================

// Contact thông tin khách hàng gắn với ticket
type Contact struct {
	// Name tên hiển thị
	Name string `gorm:"size:255" json:"name"`

	// Number số WhatsApp (E.164)
	Number string `gorm:"size:50" json:"number"`
}

// Ticket đại diện cho một ticket helpdesk (slice các trường cần thiết)
type Ticket struct {
	BaseModel

	// TenantID ID tenant sở hữu
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	// QueueID ID queue đang được gán (nullable, ticket mới chưa có queue)
	QueueID *uuid.UUID `gorm:"type:uuid;index" json:"queue_id,omitempty"`

	// SessionID ID connection WhatsApp mà ticket thuộc về
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	// Contact khách hàng
	Contact Contact `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`

	// Status trạng thái ticket (open, pending, closed)
	Status string `gorm:"size:50;not null;default:'open'" json:"status"`

	// UseIntegration ticket có đang dùng automation không
	UseIntegration bool `gorm:"default:false" json:"use_integration"`

	// BoundIntegrationID integration đang gắn trực tiếp (nullable)
	BoundIntegrationID *uuid.UUID `gorm:"type:uuid" json:"bound_integration_id,omitempty"`

	// IsBotControlled bot có đang "sở hữu" cuộc hội thoại không
	IsBotControlled bool `gorm:"default:false" json:"is_bot_controlled"`

	// BotSessionID handle của session trên remote bot (nullable)
	BotSessionID *string `gorm:"size:255" json:"bot_session_id,omitempty"`

	// BotActive bot session có đang active không
	BotActive bool `gorm:"default:false" json:"bot_active"`

	// BotSessionLastActivity thời điểm hoạt động cuối của bot session
	BotSessionLastActivity *time.Time `json:"bot_session_last_activity,omitempty"`
}

// TableName trả về tên bảng
func (Ticket) TableName() string {
	return "tickets"
}

// HasQueue kiểm tra ticket đã được gán queue chưa
func (t *Ticket) HasQueue() bool { return t.QueueID != nil }

// BotSessionExpired kiểm tra bot session đã quá hạn chưa
// expiryMinutes == 0 nghĩa là không bao giờ hết hạn
func (t *Ticket) BotSessionExpired(expiryMinutes int, now time.Time) bool {
	if !t.BotActive || expiryMinutes <= 0 || t.BotSessionLastActivity == nil {
		return false
	}
	return now.Sub(*t.BotSessionLastActivity) > time.Duration(expiryMinutes)*time.Minute
}

// StartBotSession kích hoạt bot session mới trên ticket
func (t *Ticket) StartBotSession(sessionID string, now time.Time) {
	t.BotSessionID = &sessionID
	t.BotActive = true
	t.IsBotControlled = true
	t.BotSessionLastActivity = &now
}

// TouchBotSession cập nhật thời điểm hoạt động cuối
func (t *Ticket) TouchBotSession(now time.Time) {
	t.BotSessionLastActivity = &now
}

// ClearBotSession kết thúc bot session, trả quyền cho agent
func (t *Ticket) ClearBotSession() {
	t.BotSessionID = nil
	t.BotActive = false
	t.IsBotControlled = false
	t.UseIntegration = false
	t.BotSessionLastActivity = nil
}
