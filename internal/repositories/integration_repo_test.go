package repositories

import (
	"context"
	"errors"
	"testing"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIntegrationFindByIDScopedToTenant(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()
	integration := seedIntegration(t, db, tenantA, "a-hook")

	found, err := repo.FindByID(ctx, tenantA, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, integration.ID, found.ID)

	// Tenant khác nhìn thấy not found, không phải forbidden
	_, err = repo.FindByID(ctx, tenantB, integration.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestIntegrationFindByTenantFiltersInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	seedIntegration(t, db, tenantID, "active-hook")

	disabled := seedIntegration(t, db, tenantID, "disabled-hook")
	disabled.IsActive = false
	require.NoError(t, db.Save(disabled).Error)

	active, total, err := repo.FindByTenant(ctx, tenantID, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, "active-hook", active[0].Name)

	all, total, err := repo.FindByTenant(ctx, tenantID, FindOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestIntegrationConfigRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	integration := &models.Integration{
		TenantID: tenantID,
		Name:     "bot",
		Type:     models.TypeTypebot,
		Config: models.IntegrationConfig{
			URL:        "http://typebot.local",
			APIKey:     "key-123",
			TimeoutSec: 20,
			Headers:    map[string]string{"X-Env": "test"},
		},
		Bot: models.BotSettings{
			BotURL:        "http://typebot.local",
			BotSlug:       "support",
			KeywordFinish: "sair",
			ExpiryMinutes: 30,
		},
		IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, integration))

	found, err := repo.FindByID(ctx, tenantID, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "key-123", found.Config.APIKey)
	assert.Equal(t, 20, found.Config.TimeoutSec)
	assert.Equal(t, "test", found.Config.Headers["X-Env"])
	assert.Equal(t, "sair", found.Bot.KeywordFinish)
	assert.Equal(t, 30, found.Bot.ExpiryMinutes)
	assert.True(t, found.IsBot())
}

func TestIntegrationDeleteScopedToTenant(t *testing.T) {
	db := newTestDB(t)
	repo := NewIntegrationRepository(db)
	ctx := context.Background()

	tenantA := uuid.New()
	integration := seedIntegration(t, db, tenantA, "hook")

	// Tenant khác không xóa được
	err := repo.Delete(ctx, uuid.New(), integration.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repo.Delete(ctx, tenantA, integration.ID))

	// Soft delete: không còn tìm thấy qua repo
	_, err = repo.FindByID(ctx, tenantA, integration.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTicketBindingFindOrCreateIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketBindingRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	ticketID := uuid.New()
	integration := seedIntegration(t, db, tenantID, "hook")

	first, created, err := repo.FindOrCreate(ctx, &models.TicketBinding{
		TenantID:      tenantID,
		TicketID:      ticketID,
		IntegrationID: integration.ID,
		IsActive:      true,
	})
	require.NoError(t, err)
	assert.True(t, created)

	// Bind lại cùng cặp: trả về row cũ
	second, created, err := repo.FindOrCreate(ctx, &models.TicketBinding{
		TenantID:      tenantID,
		TicketID:      ticketID,
		IntegrationID: integration.ID,
		IsActive:      true,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.TicketBinding{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTicketBindingInactivePersisted(t *testing.T) {
	db := newTestDB(t)
	repo := NewTicketBindingRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	ticketID := uuid.New()
	integration := seedIntegration(t, db, tenantID, "hook")

	// IsActive false phải được ghi xuống DB đúng như gửi lên
	_, _, err := repo.FindOrCreate(ctx, &models.TicketBinding{
		TenantID:      tenantID,
		TicketID:      ticketID,
		IntegrationID: integration.ID,
		IsActive:      false,
	})
	require.NoError(t, err)

	active, err := repo.FindByTicket(ctx, ticketID, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.FindByTicket(ctx, ticketID, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}
