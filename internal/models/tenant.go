package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ===========================================================================
// Tenant (Công ty/doanh nghiệp)
// Đại diện cho một công ty trong hệ thống multi-tenant
// Tất cả entities khác đều thuộc về một tenant
// ===========================================================================

// TenantSettings cấu hình cho tenant
type TenantSettings struct {
	// Timezone múi giờ (VD: "America/Sao_Paulo")
	Timezone string `json:"timezone"`

	// AutomationEnabled có bật automation dispatch không
	AutomationEnabled bool `json:"automation_enabled"`

	// Language ngôn ngữ mặc định (pt, en, vi)
	Language string `json:"language"`
}

// Value implement driver.Valuer để lưu JSONB vào PostgreSQL
func (s TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implement sql.Scanner để đọc JSONB từ PostgreSQL
func (s *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*s = TenantSettings{}
		return nil
	}
	return json.Unmarshal(jsonBytes(value), s)
}

// Tenant đại diện cho một công ty
type Tenant struct {
	BaseModel

	// Name tên công ty
	Name string `gorm:"size:255;not null" json:"name"`

	// Slug định danh ngắn gọn, dùng trong URL
	Slug string `gorm:"size:100;not null;uniqueIndex" json:"slug"`

	// Settings cấu hình tenant
	Settings TenantSettings `gorm:"type:jsonb;default:'{}'" json:"settings"`

	// IsActive tenant có đang hoạt động không
	IsActive bool `gorm:"default:true" json:"is_active"`
}

// TableName trả về tên bảng
func (Tenant) TableName() string {
	return "tenants"
}
