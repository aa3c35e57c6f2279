package channel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ===========================================================================
// Mock Sender
// Dùng cho test và chạy local không có provider WhatsApp thật
// ===========================================================================

// MockSender ghi lại các message đã gửi thay vì gửi thật
type MockSender struct {
	mu sync.Mutex

	// Sent các message đã nhận, theo thứ tự gửi
	Sent []OutboundMessage

	// FailNext nếu true, lần Send tiếp theo trả lỗi rồi tự reset
	FailNext bool
}

// NewMockSender tạo MockSender mới
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Send ghi lại message
func (m *MockSender) Send(ctx context.Context, msg OutboundMessage) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext {
		m.FailNext = false
		return nil, fmt.Errorf("mock send failure")
	}

	m.Sent = append(m.Sent, msg)
	return &SendResult{
		MessageID: fmt.Sprintf("mock-%d", len(m.Sent)),
		SentAt:    time.Now(),
	}, nil
}

// SentContents trả về nội dung các message đã gửi
func (m *MockSender) SentContents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.Sent))
	for i, msg := range m.Sent {
		out[i] = msg.Content
	}
	return out
}
