package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// ===========================================================================
// Integration (Backend automation bên ngoài)
// Định nghĩa một backend automation: webhook, n8n, typebot, api, custom
// Dispatch engine dựa vào Type để chọn cách build payload và gọi ra ngoài
// ===========================================================================

// IntegrationType loại backend automation
type IntegrationType string

const (
	// TypeWebhook gọi một webhook URL generic
	TypeWebhook IntegrationType = "webhook"

	// TypeN8N gọi workflow-automation server n8n
	TypeN8N IntegrationType = "n8n"

	// TypeTypebot gọi conversational-bot server typebot
	TypeTypebot IntegrationType = "typebot"

	// TypeAPI gọi API tùy chỉnh với auth riêng
	TypeAPI IntegrationType = "api"

	// TypeCustom backend tùy biến theo config
	TypeCustom IntegrationType = "custom"
)

// KnownTypes danh sách các type được dispatch engine hỗ trợ
var KnownTypes = []IntegrationType{TypeWebhook, TypeN8N, TypeTypebot, TypeAPI, TypeCustom}

// IsKnownType kiểm tra type có được hỗ trợ không
func IsKnownType(t IntegrationType) bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IntegrationConfig cấu hình kết nối ra backend bên ngoài
type IntegrationConfig struct {
	// URL endpoint để gọi
	URL string `json:"url,omitempty"`

	// Headers các header bổ sung (merge vào request)
	Headers map[string]string `json:"headers,omitempty"`

	// TimeoutSec timeout mỗi lần gọi (giây), 0 = dùng default theo type
	TimeoutSec int `json:"timeout_sec,omitempty"`

	// AuthToken bearer token (cho n8n, api, custom)
	AuthToken string `json:"auth_token,omitempty"`

	// APIKey api key (cho typebot)
	APIKey string `json:"api_key,omitempty"`
}

// Value implement driver.Valuer cho JSONB
func (c IntegrationConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implement sql.Scanner cho JSONB
func (c *IntegrationConfig) Scan(value interface{}) error {
	if value == nil {
		*c = IntegrationConfig{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), c)
}

// BotSettings các trường riêng cho conversational bot (typebot)
// Binding ở từng scope có thể override từng trường (xem BotOverrides)
type BotSettings struct {
	// BotURL URL của typebot server
	BotURL string `json:"bot_url,omitempty"`

	// BotSlug slug của bot flow trên server
	BotSlug string `json:"bot_slug,omitempty"`

	// ExpiryMinutes số phút không hoạt động thì bot session hết hạn
	// 0 = không bao giờ hết hạn
	ExpiryMinutes int `json:"expiry_minutes,omitempty"`

	// KeywordFinish từ khóa kết thúc bot session (so sánh không phân biệt hoa thường)
	KeywordFinish string `json:"keyword_finish,omitempty"`

	// KeywordRestart từ khóa restart bot session
	KeywordRestart string `json:"keyword_restart,omitempty"`

	// UnknownMessage tin nhắn gửi khi bot không hiểu input
	UnknownMessage string `json:"unknown_message,omitempty"`

	// ReplyDelayMs độ trễ trước khi gửi fallback (mô phỏng đang gõ)
	ReplyDelayMs int `json:"reply_delay_ms,omitempty"`

	// RestartMessage tin nhắn gửi khi restart session
	RestartMessage string `json:"restart_message,omitempty"`
}

// Value implement driver.Valuer cho JSONB
func (s BotSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implement sql.Scanner cho JSONB
func (s *BotSettings) Scan(value interface{}) error {
	if value == nil {
		*s = BotSettings{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), s)
}

// jsonBytes chấp nhận cả []byte (postgres) lẫn string (sqlite trong test)
func jsonBytes(value interface{}) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Integration đại diện cho một backend automation
type Integration struct {
	BaseModel

	// TenantID ID tenant sở hữu
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`

	// Name tên hiển thị
	Name string `gorm:"size:255;not null" json:"name"`

	// Type loại backend: webhook, n8n, typebot, api, custom
	Type IntegrationType `gorm:"size:50;not null;index" json:"type"`

	// Config cấu hình kết nối (url, headers, timeout, auth)
	Config IntegrationConfig `gorm:"type:jsonb;not null;default:'{}'" json:"config"`

	// Bot các trường riêng cho conversational bot
	Bot BotSettings `gorm:"type:jsonb;not null;default:'{}'" json:"bot"`

	// IsActive integration có đang active không
	// Dispatch không bao giờ tự sửa trường này
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}

// TableName trả về tên bảng
func (Integration) TableName() string {
	return "integrations"
}

// IsBot kiểm tra integration có phải conversational bot không
func (i *Integration) IsBot() bool { return i.Type == TypeTypebot }
