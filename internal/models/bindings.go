package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// ===========================================================================
// Bindings (Liên kết integration với ticket / queue / session)
// Ba bảng độc lập, mỗi bảng có active flag và override riêng
// Độ ưu tiên khi merge: ticket > queue > session
// ===========================================================================

// BotOverrides override từng trường BotSettings ở mức binding
// Trường nil = không override, fallback về giá trị của base Integration
type BotOverrides struct {
	BotURL         *string `json:"bot_url,omitempty"`
	BotSlug        *string `json:"bot_slug,omitempty"`
	ExpiryMinutes  *int    `json:"expiry_minutes,omitempty"`
	KeywordFinish  *string `json:"keyword_finish,omitempty"`
	KeywordRestart *string `json:"keyword_restart,omitempty"`
	UnknownMessage *string `json:"unknown_message,omitempty"`
	ReplyDelayMs   *int    `json:"reply_delay_ms,omitempty"`
	RestartMessage *string `json:"restart_message,omitempty"`
}

// Value implement driver.Valuer cho JSONB
func (o BotOverrides) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan implement sql.Scanner cho JSONB
func (o *BotOverrides) Scan(value interface{}) error {
	if value == nil {
		*o = BotOverrides{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), o)
}

// ApplyTo merge overrides lên base settings, từng trường một
// Trường nil giữ nguyên giá trị của base
func (o BotOverrides) ApplyTo(base BotSettings) BotSettings {
	out := base
	if o.BotURL != nil {
		out.BotURL = *o.BotURL
	}
	if o.BotSlug != nil {
		out.BotSlug = *o.BotSlug
	}
	if o.ExpiryMinutes != nil {
		out.ExpiryMinutes = *o.ExpiryMinutes
	}
	if o.KeywordFinish != nil {
		out.KeywordFinish = *o.KeywordFinish
	}
	if o.KeywordRestart != nil {
		out.KeywordRestart = *o.KeywordRestart
	}
	if o.UnknownMessage != nil {
		out.UnknownMessage = *o.UnknownMessage
	}
	if o.ReplyDelayMs != nil {
		out.ReplyDelayMs = *o.ReplyDelayMs
	}
	if o.RestartMessage != nil {
		out.RestartMessage = *o.RestartMessage
	}
	return out
}

// ===========================================================================
// QueueBinding
// ===========================================================================

// QueueBinding liên kết integration với một queue
// Một queue có thể có nhiều bindings, một integration có thể bind nhiều queue
type QueueBinding struct {
	BaseModel

	// TenantID ID tenant sở hữu
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	// QueueID ID queue
	QueueID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_queue_bindings_queue_integration" json:"queue_id"`

	// IntegrationID ID integration được bind
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_queue_bindings_queue_integration" json:"integration_id"`

	// Overrides override các trường bot ở mức queue
	Overrides BotOverrides `gorm:"type:jsonb;not null;default:'{}'" json:"overrides"`

	// IsActive binding có đang active không (độc lập với integration)
	// Không gắn default tag: GORM bỏ qua zero value khi insert nếu cột có default
	IsActive bool `json:"is_active"`

	// Relations
	Integration Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
}

// TableName trả về tên bảng
func (QueueBinding) TableName() string {
	return "queue_bindings"
}

// ===========================================================================
// SessionBinding
// ===========================================================================

// SessionBinding liên kết integration với một connection (session WhatsApp)
// Invariant: tối đa MỘT binding cho mỗi cặp (session, tenant), enforced
// bằng unique index ở tầng persistence, bind lại = upsert
type SessionBinding struct {
	BaseModel

	// TenantID ID tenant sở hữu
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_bindings_session_tenant" json:"tenant_id"`

	// SessionID ID connection WhatsApp
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_bindings_session_tenant" json:"session_id"`

	// IntegrationID ID integration được bind
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"integration_id"`

	// TriggerOnlyWithoutQueue chỉ áp dụng khi ticket CHƯA có queue
	TriggerOnlyWithoutQueue bool `gorm:"default:false" json:"trigger_only_without_queue"`

	// Overrides override các trường bot ở mức session
	Overrides BotOverrides `gorm:"type:jsonb;not null;default:'{}'" json:"overrides"`

	// IsActive binding có đang active không
	IsActive bool `json:"is_active"`

	// Relations
	Integration Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
}

// TableName trả về tên bảng
func (SessionBinding) TableName() string {
	return "session_bindings"
}

// AppliesTo kiểm tra binding có áp dụng cho ticket không
// theo rule triggerOnlyWithoutQueue
func (b *SessionBinding) AppliesTo(ticket *Ticket) bool {
	return !b.TriggerOnlyWithoutQueue || ticket.QueueID == nil
}

// ===========================================================================
// TicketBinding
// ===========================================================================

// TicketBinding liên kết trực tiếp integration với một ticket
// Bypass cả queue lẫn session gating, độ ưu tiên cao nhất khi merge
type TicketBinding struct {
	BaseModel

	// TenantID ID tenant sở hữu
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	// TicketID ID ticket
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ticket_bindings_ticket_integration" json:"ticket_id"`

	// IntegrationID ID integration được bind
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_ticket_bindings_ticket_integration" json:"integration_id"`

	// Overrides override các trường bot ở mức ticket
	Overrides BotOverrides `gorm:"type:jsonb;not null;default:'{}'" json:"overrides"`

	// IsActive binding có đang active không
	IsActive bool `json:"is_active"`

	// Relations
	Integration Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
}

// TableName trả về tên bảng
func (TicketBinding) TableName() string {
	return "ticket_bindings"
}
