package services

import (
	"context"
	"testing"

	"whatsdesk/internal/dto"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ===========================================================================
// Fakes
// ===========================================================================

// fakeTicketBindingRepo fake in-memory cho TicketBindingRepository
type fakeTicketBindingRepo struct {
	items []*models.TicketBinding
}

func (f *fakeTicketBindingRepo) FindByTicket(ctx context.Context, ticketID uuid.UUID, includeInactive bool) ([]models.TicketBinding, error) {
	var out []models.TicketBinding
	for _, b := range f.items {
		if b.TicketID != ticketID {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeTicketBindingRepo) FindOrCreate(ctx context.Context, binding *models.TicketBinding) (*models.TicketBinding, bool, error) {
	for _, b := range f.items {
		if b.TicketID == binding.TicketID && b.IntegrationID == binding.IntegrationID {
			copied := *b
			return &copied, false, nil
		}
	}
	if binding.ID == uuid.Nil {
		binding.ID = uuid.New()
	}
	copied := *binding
	f.items = append(f.items, &copied)
	return binding, true, nil
}

func (f *fakeTicketBindingRepo) Update(ctx context.Context, binding *models.TicketBinding) error {
	for i, b := range f.items {
		if b.ID == binding.ID {
			copied := *binding
			f.items[i] = &copied
			return nil
		}
	}
	return nil
}

func (f *fakeTicketBindingRepo) Delete(ctx context.Context, ticketID, integrationID uuid.UUID) error {
	kept := f.items[:0]
	for _, b := range f.items {
		if b.TicketID == ticketID && b.IntegrationID == integrationID {
			continue
		}
		kept = append(kept, b)
	}
	f.items = kept
	return nil
}

// fakeQueueBindingRepo fake in-memory cho QueueBindingRepository
type fakeQueueBindingRepo struct {
	items []*models.QueueBinding
}

func (f *fakeQueueBindingRepo) FindByQueue(ctx context.Context, queueID uuid.UUID, includeInactive bool) ([]models.QueueBinding, error) {
	var out []models.QueueBinding
	for _, b := range f.items {
		if b.QueueID != queueID {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeQueueBindingRepo) FindOrCreate(ctx context.Context, binding *models.QueueBinding) (*models.QueueBinding, bool, error) {
	for _, b := range f.items {
		if b.QueueID == binding.QueueID && b.IntegrationID == binding.IntegrationID {
			copied := *b
			return &copied, false, nil
		}
	}
	if binding.ID == uuid.Nil {
		binding.ID = uuid.New()
	}
	copied := *binding
	f.items = append(f.items, &copied)
	return binding, true, nil
}

func (f *fakeQueueBindingRepo) Update(ctx context.Context, binding *models.QueueBinding) error {
	for i, b := range f.items {
		if b.ID == binding.ID {
			copied := *binding
			f.items[i] = &copied
			return nil
		}
	}
	return nil
}

func (f *fakeQueueBindingRepo) Delete(ctx context.Context, queueID, integrationID uuid.UUID) error {
	kept := f.items[:0]
	for _, b := range f.items {
		if b.QueueID == queueID && b.IntegrationID == integrationID {
			continue
		}
		kept = append(kept, b)
	}
	f.items = kept
	return nil
}

// fakeSessionBindingRepo fake in-memory cho SessionBindingRepository
// Key theo (tenant, session) như unique index thật
type fakeSessionBindingRepo struct {
	items map[[2]uuid.UUID]*models.SessionBinding
}

func newFakeSessionBindingRepo() *fakeSessionBindingRepo {
	return &fakeSessionBindingRepo{items: map[[2]uuid.UUID]*models.SessionBinding{}}
}

func (f *fakeSessionBindingRepo) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID, includeInactive bool) (*models.SessionBinding, error) {
	b, ok := f.items[[2]uuid.UUID{tenantID, sessionID}]
	if !ok {
		return nil, nil
	}
	if !includeInactive && !b.IsActive {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeSessionBindingRepo) Upsert(ctx context.Context, binding *models.SessionBinding) error {
	key := [2]uuid.UUID{binding.TenantID, binding.SessionID}
	if existing, ok := f.items[key]; ok {
		existing.IntegrationID = binding.IntegrationID
		existing.TriggerOnlyWithoutQueue = binding.TriggerOnlyWithoutQueue
		existing.Overrides = binding.Overrides
		existing.IsActive = binding.IsActive
		return nil
	}
	if binding.ID == uuid.Nil {
		binding.ID = uuid.New()
	}
	copied := *binding
	f.items[key] = &copied
	return nil
}

func (f *fakeSessionBindingRepo) Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	delete(f.items, [2]uuid.UUID{tenantID, sessionID})
	return nil
}

func newTestBindingService() (BindingService, *fakeIntegrationRepo) {
	integrations := newFakeIntegrationRepo()
	return NewBindingService(
		integrations,
		&fakeTicketBindingRepo{},
		&fakeQueueBindingRepo{},
		newFakeSessionBindingRepo(),
		zap.NewNop(),
	), integrations
}

func seedTestIntegration(t *testing.T, repo *fakeIntegrationRepo, tenantID uuid.UUID) *models.Integration {
	t.Helper()

	integration := &models.Integration{
		TenantID: tenantID,
		Name:     "hook",
		Type:     models.TypeWebhook,
		Config:   models.IntegrationConfig{URL: "http://example.com/hook"},
		IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), integration))
	return integration
}

func boolPtr(v bool) *bool { return &v }

// ===========================================================================
// Tests
// ===========================================================================

func TestBindQueueRejectsForeignIntegration(t *testing.T) {
	svc, integrations := newTestBindingService()
	integration := seedTestIntegration(t, integrations, uuid.New())

	// Tenant khác không bind được integration của tenant này
	_, err := svc.BindQueue(context.Background(), uuid.New(), &dto.BindQueueRequest{
		QueueID:       uuid.New(),
		IntegrationID: integration.ID,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateQueueBindingDeactivates(t *testing.T) {
	svc, integrations := newTestBindingService()
	ctx := context.Background()

	tenantID := uuid.New()
	queueID := uuid.New()
	integration := seedTestIntegration(t, integrations, tenantID)

	bound, err := svc.BindQueue(ctx, tenantID, &dto.BindQueueRequest{
		QueueID:       queueID,
		IntegrationID: integration.ID,
	})
	require.NoError(t, err)
	assert.True(t, bound.IsActive)

	updated, err := svc.UpdateQueueBinding(ctx, tenantID, queueID, integration.ID, &dto.UpdateBindingRequest{
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	// Binding vẫn tồn tại, chỉ tắt
	bindings, err := svc.ListQueueBindings(ctx, tenantID, queueID)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.False(t, bindings[0].IsActive)

	// Bật lại không cần unbind
	updated, err = svc.UpdateQueueBinding(ctx, tenantID, queueID, integration.ID, &dto.UpdateBindingRequest{
		IsActive: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}

func TestUpdateQueueBindingScopedToTenant(t *testing.T) {
	svc, integrations := newTestBindingService()
	ctx := context.Background()

	tenantID := uuid.New()
	queueID := uuid.New()
	integration := seedTestIntegration(t, integrations, tenantID)

	_, err := svc.BindQueue(ctx, tenantID, &dto.BindQueueRequest{
		QueueID:       queueID,
		IntegrationID: integration.ID,
	})
	require.NoError(t, err)

	// Tenant khác không thấy binding này
	_, err = svc.UpdateQueueBinding(ctx, uuid.New(), queueID, integration.ID, &dto.UpdateBindingRequest{
		IsActive: boolPtr(false),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateTicketBindingDeactivates(t *testing.T) {
	svc, integrations := newTestBindingService()
	ctx := context.Background()

	tenantID := uuid.New()
	ticketID := uuid.New()
	integration := seedTestIntegration(t, integrations, tenantID)

	_, err := svc.BindTicket(ctx, tenantID, ticketID, &dto.BindTicketRequest{
		IntegrationID: integration.ID,
	})
	require.NoError(t, err)

	msg := "Mình chưa hiểu, bạn thử lại nhé"
	updated, err := svc.UpdateTicketBinding(ctx, tenantID, ticketID, integration.ID, &dto.UpdateBindingRequest{
		IsActive:  boolPtr(false),
		Overrides: &models.BotOverrides{UnknownMessage: &msg},
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.Overrides.UnknownMessage)
	assert.Equal(t, msg, *updated.Overrides.UnknownMessage)
}

func TestUpdateTicketBindingUnknownPair(t *testing.T) {
	svc, integrations := newTestBindingService()
	tenantID := uuid.New()
	integration := seedTestIntegration(t, integrations, tenantID)

	_, err := svc.UpdateTicketBinding(context.Background(), tenantID, uuid.New(), integration.ID, &dto.UpdateBindingRequest{
		IsActive: boolPtr(false),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateSessionBindingTogglesFields(t *testing.T) {
	svc, integrations := newTestBindingService()
	ctx := context.Background()

	tenantID := uuid.New()
	sessionID := uuid.New()
	integration := seedTestIntegration(t, integrations, tenantID)

	_, err := svc.BindSession(ctx, tenantID, &dto.BindSessionRequest{
		SessionID:     sessionID,
		IntegrationID: integration.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSessionBinding(ctx, tenantID, sessionID, &dto.UpdateSessionBindingRequest{
		IsActive:                boolPtr(false),
		TriggerOnlyWithoutQueue: boolPtr(true),
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.TriggerOnlyWithoutQueue)

	// Integration giữ nguyên, chỉ các trường gửi lên đổi
	assert.Equal(t, integration.ID, updated.IntegrationID)
}

func TestUpdateSessionBindingAbsent(t *testing.T) {
	svc, _ := newTestBindingService()

	_, err := svc.UpdateSessionBinding(context.Background(), uuid.New(), uuid.New(), &dto.UpdateSessionBindingRequest{
		IsActive: boolPtr(false),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
