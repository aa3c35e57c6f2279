package repositories

import (
	"testing"

	"whatsdesk/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ===========================================================================
// Test Helpers
// Tests chạy trên sqlite in-memory. Schema được tạo bằng DDL tường minh
// vì các default postgres (gen_random_uuid, now) không migrate được
// sang sqlite, ID vẫn do BeforeCreate hook generate nên không sao
// ===========================================================================

var testSchema = []string{
	`CREATE TABLE integrations (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		bot TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN DEFAULT true
	)`,
	`CREATE TABLE ticket_bindings (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id TEXT NOT NULL,
		ticket_id TEXT NOT NULL,
		integration_id TEXT NOT NULL,
		overrides TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL
	)`,
	`CREATE UNIQUE INDEX uq_ticket_bindings_ticket_integration
		ON ticket_bindings (ticket_id, integration_id)`,
	`CREATE TABLE queue_bindings (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id TEXT NOT NULL,
		queue_id TEXT NOT NULL,
		integration_id TEXT NOT NULL,
		overrides TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL
	)`,
	`CREATE UNIQUE INDEX uq_queue_bindings_queue_integration
		ON queue_bindings (queue_id, integration_id)`,
	`CREATE TABLE session_bindings (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		integration_id TEXT NOT NULL,
		trigger_only_without_queue BOOLEAN DEFAULT false,
		overrides TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL
	)`,
	`CREATE UNIQUE INDEX uq_session_bindings_session_tenant
		ON session_bindings (session_id, tenant_id)`,
	`CREATE TABLE tickets (
		id TEXT PRIMARY KEY,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME,
		tenant_id TEXT NOT NULL,
		queue_id TEXT,
		session_id TEXT NOT NULL,
		contact_name TEXT,
		contact_number TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		use_integration BOOLEAN DEFAULT false,
		bound_integration_id TEXT,
		is_bot_controlled BOOLEAN DEFAULT false,
		bot_session_id TEXT,
		bot_active BOOLEAN DEFAULT false,
		bot_session_last_activity DATETIME
	)`,
}

// newTestDB tạo sqlite in-memory database với schema đầy đủ
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// seedIntegration tạo integration trong DB cho test
func seedIntegration(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string) *models.Integration {
	t.Helper()

	integration := &models.Integration{
		TenantID: tenantID,
		Name:     name,
		Type:     models.TypeWebhook,
		Config:   models.IntegrationConfig{URL: "http://example.com/hook"},
		IsActive: true,
	}
	require.NoError(t, db.Create(integration).Error)
	return integration
}
