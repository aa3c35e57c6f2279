package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Channel Sender
// Abstraction gửi message ra kênh WhatsApp
// Module automation không nói chuyện trực tiếp với WhatsApp,
// implementation thật nằm ở messaging layer của hệ thống helpdesk
// ===========================================================================

// OutboundMessage một message gửi ra cho khách hàng
type OutboundMessage struct {
	// TicketID ticket mà message thuộc về
	TicketID uuid.UUID `json:"ticket_id"`

	// SessionID connection WhatsApp dùng để gửi
	SessionID uuid.UUID `json:"session_id"`

	// Number số WhatsApp người nhận (E.164)
	Number string `json:"number"`

	// Content nội dung text
	Content string `json:"content"`
}

// SendResult kết quả gửi message
type SendResult struct {
	// MessageID ID message phía provider
	MessageID string `json:"message_id"`

	// SentAt thời điểm gửi
	SentAt time.Time `json:"sent_at"`
}

// Sender interface gửi message ra kênh
type Sender interface {
	// Send gửi một message, block đến khi provider nhận hoặc ctx hủy
	Send(ctx context.Context, msg OutboundMessage) (*SendResult, error)
}
