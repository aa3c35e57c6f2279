package automation

// ===========================================================================
// Ticket Lifecycle Events
// Mỗi event đi qua Scope Resolver rồi fan-out qua Dispatch Engine
// ===========================================================================

// Event loại sự kiện lifecycle của ticket
type Event string

const (
	// EventTicketCreated ticket vừa được tạo
	EventTicketCreated Event = "ticket_created"

	// EventTicketUpdated ticket vừa được cập nhật
	EventTicketUpdated Event = "ticket_updated"

	// EventTicketStatusChanged trạng thái ticket thay đổi
	EventTicketStatusChanged Event = "ticket_status_changed"

	// EventMessageReceived khách gửi message mới vào ticket
	// Dùng khi forward input cho remote bot
	EventMessageReceived Event = "message_received"

	// EventManualTrigger agent bấm trigger thủ công từ admin console
	EventManualTrigger Event = "manual_trigger"

	// EventTestConnection test một integration với dữ liệu synthetic
	EventTestConnection Event = "test_connection"
)

// Extras dữ liệu bổ sung đính kèm vào payload của một dispatch
// VD: "message" cho typebot forward, "old_status"/"new_status" cho status change
type Extras map[string]interface{}
