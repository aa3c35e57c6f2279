package models

// ===========================================================================
// Models Index
// Cung cấp danh sách tất cả models cho GORM AutoMigrate
// ===========================================================================

// AllModels trả về danh sách tất cả models
// Dùng cho database.AutoMigrate() để tự động tạo/update tables
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},         // Công ty
		&Integration{},    // Backend automation
		&QueueBinding{},   // Liên kết integration-queue
		&SessionBinding{}, // Liên kết integration-session (unique per session+tenant)
		&TicketBinding{},  // Liên kết integration-ticket
		&Ticket{},         // Ticket (slice các trường bot)
	}
}
