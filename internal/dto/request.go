package dto

import (
	"whatsdesk/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Request DTOs (Data Transfer Objects)
// Các struct dùng để validate và parse request body/query
// ===========================================================================

// PaginationRequest phân trang cho các API list
type PaginationRequest struct {
	// Page số trang hiện tại (bắt đầu từ 1)
	Page int `form:"page" binding:"min=0"`

	// Limit số record mỗi trang (tối đa 100)
	Limit int `form:"limit" binding:"min=0,max=100"`
}

// SetDefaults set giá trị mặc định cho pagination
func (p *PaginationRequest) SetDefaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
}

// Offset tính offset cho database query
func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ===========================================================================
// Integration Requests
// ===========================================================================

// ListIntegrationsRequest request lấy danh sách integrations
type ListIntegrationsRequest struct {
	PaginationRequest

	// Type filter theo loại
	Type string `form:"type" binding:"omitempty,oneof=webhook n8n typebot api custom"`

	// IncludeInactive có trả về cả integration đã deactivate không
	IncludeInactive bool `form:"include_inactive"`
}

// CreateIntegrationRequest request tạo integration mới
type CreateIntegrationRequest struct {
	// Name tên hiển thị (bắt buộc)
	Name string `json:"name" binding:"required,min=1,max=255"`

	// Type loại backend (bắt buộc)
	Type string `json:"type" binding:"required,oneof=webhook n8n typebot api custom"`

	// Config cấu hình kết nối
	Config models.IntegrationConfig `json:"config"`

	// Bot cấu hình bot (chỉ dùng khi type là typebot)
	Bot models.BotSettings `json:"bot"`
}

// UpdateIntegrationRequest request cập nhật integration
// Trường nil = không đổi
type UpdateIntegrationRequest struct {
	// Name tên mới
	Name *string `json:"name" binding:"omitempty,min=1,max=255"`

	// Config cấu hình kết nối mới (thay toàn bộ)
	Config *models.IntegrationConfig `json:"config"`

	// Bot cấu hình bot mới (thay toàn bộ)
	Bot *models.BotSettings `json:"bot"`

	// IsActive bật/tắt integration
	IsActive *bool `json:"is_active"`
}

// ===========================================================================
// Binding Requests
// ===========================================================================

// BindQueueRequest request bind integration vào queue
type BindQueueRequest struct {
	// QueueID ID queue (bắt buộc)
	QueueID uuid.UUID `json:"queue_id" binding:"required"`

	// IntegrationID ID integration (bắt buộc)
	IntegrationID uuid.UUID `json:"integration_id" binding:"required"`

	// Overrides override các trường bot ở mức queue
	Overrides models.BotOverrides `json:"overrides"`
}

// BindSessionRequest request bind integration vào session WhatsApp
// Bind lại session đã có binding sẽ thay thế binding cũ
type BindSessionRequest struct {
	// SessionID ID connection WhatsApp (bắt buộc)
	SessionID uuid.UUID `json:"session_id" binding:"required"`

	// IntegrationID ID integration (bắt buộc)
	IntegrationID uuid.UUID `json:"integration_id" binding:"required"`

	// TriggerOnlyWithoutQueue chỉ áp dụng cho ticket chưa có queue
	TriggerOnlyWithoutQueue bool `json:"trigger_only_without_queue"`

	// Overrides override các trường bot ở mức session
	Overrides models.BotOverrides `json:"overrides"`
}

// BindTicketRequest request bind integration trực tiếp vào ticket
type BindTicketRequest struct {
	// IntegrationID ID integration (bắt buộc)
	IntegrationID uuid.UUID `json:"integration_id" binding:"required"`

	// Overrides override các trường bot ở mức ticket
	Overrides models.BotOverrides `json:"overrides"`
}

// UpdateBindingRequest request cập nhật binding queue hoặc ticket
// Trường nil giữ nguyên giá trị hiện tại
type UpdateBindingRequest struct {
	// IsActive bật/tắt binding mà không cần unbind
	IsActive *bool `json:"is_active"`

	// Overrides thay toàn bộ overrides của binding
	Overrides *models.BotOverrides `json:"overrides"`
}

// UpdateSessionBindingRequest request cập nhật binding session
// Trường nil giữ nguyên giá trị hiện tại
type UpdateSessionBindingRequest struct {
	// IsActive bật/tắt binding mà không cần unbind
	IsActive *bool `json:"is_active"`

	// TriggerOnlyWithoutQueue chỉ áp dụng cho ticket chưa có queue
	TriggerOnlyWithoutQueue *bool `json:"trigger_only_without_queue"`

	// Overrides thay toàn bộ overrides của binding
	Overrides *models.BotOverrides `json:"overrides"`
}

// ===========================================================================
// Automation Requests
// ===========================================================================

// TriggerDispatchRequest request trigger dispatch thủ công cho ticket
type TriggerDispatchRequest struct {
	// Event loại sự kiện muốn mô phỏng (mặc định: manual_trigger)
	Event string `json:"event" binding:"omitempty,oneof=ticket_created ticket_updated ticket_status_changed message_received manual_trigger"`

	// Extras dữ liệu bổ sung đính vào payload
	Extras map[string]interface{} `json:"extras"`
}

// InboundMessageRequest request xử lý message khách gửi vào ticket
type InboundMessageRequest struct {
	// Content nội dung text (bắt buộc)
	Content string `json:"content" binding:"required,min=1,max=5000"`
}
