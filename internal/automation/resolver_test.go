package automation

import (
	"context"
	"testing"

	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ===========================================================================
// In-memory fakes cho ba binding repositories
// ===========================================================================

type fakeTicketBindings struct {
	bindings []models.TicketBinding
}

func (f *fakeTicketBindings) FindByTicket(ctx context.Context, ticketID uuid.UUID, includeInactive bool) ([]models.TicketBinding, error) {
	var out []models.TicketBinding
	for _, b := range f.bindings {
		if b.TicketID != ticketID {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeTicketBindings) FindOrCreate(ctx context.Context, binding *models.TicketBinding) (*models.TicketBinding, bool, error) {
	f.bindings = append(f.bindings, *binding)
	return binding, true, nil
}

func (f *fakeTicketBindings) Update(ctx context.Context, binding *models.TicketBinding) error {
	return nil
}

func (f *fakeTicketBindings) Delete(ctx context.Context, ticketID, integrationID uuid.UUID) error {
	return nil
}

type fakeQueueBindings struct {
	bindings []models.QueueBinding
}

func (f *fakeQueueBindings) FindByQueue(ctx context.Context, queueID uuid.UUID, includeInactive bool) ([]models.QueueBinding, error) {
	var out []models.QueueBinding
	for _, b := range f.bindings {
		if b.QueueID != queueID {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeQueueBindings) FindOrCreate(ctx context.Context, binding *models.QueueBinding) (*models.QueueBinding, bool, error) {
	f.bindings = append(f.bindings, *binding)
	return binding, true, nil
}

func (f *fakeQueueBindings) Update(ctx context.Context, binding *models.QueueBinding) error {
	return nil
}

func (f *fakeQueueBindings) Delete(ctx context.Context, queueID, integrationID uuid.UUID) error {
	return nil
}

type fakeSessionBindings struct {
	binding *models.SessionBinding
}

func (f *fakeSessionBindings) FindBySession(ctx context.Context, tenantID, sessionID uuid.UUID, includeInactive bool) (*models.SessionBinding, error) {
	if f.binding == nil {
		return nil, nil
	}
	if f.binding.TenantID != tenantID || f.binding.SessionID != sessionID {
		return nil, nil
	}
	if !includeInactive && !f.binding.IsActive {
		return nil, nil
	}
	return f.binding, nil
}

func (f *fakeSessionBindings) Upsert(ctx context.Context, binding *models.SessionBinding) error {
	f.binding = binding
	return nil
}

func (f *fakeSessionBindings) Delete(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	f.binding = nil
	return nil
}

// ===========================================================================
// Test Helpers
// ===========================================================================

func newIntegration(name string, typ models.IntegrationType) models.Integration {
	i := models.Integration{
		TenantID: uuid.New(),
		Name:     name,
		Type:     typ,
		IsActive: true,
	}
	i.ID = uuid.New()
	return i
}

func newTestTicket(tenantID uuid.UUID, queueID *uuid.UUID) *models.Ticket {
	t := &models.Ticket{
		TenantID:  tenantID,
		QueueID:   queueID,
		SessionID: uuid.New(),
		Status:    "open",
	}
	t.ID = uuid.New()
	return t
}

func strPtr(s string) *string { return &s }

// ===========================================================================
// Tests
// ===========================================================================

func TestResolveCollectsAllThreeScopes(t *testing.T) {
	tenantID := uuid.New()
	queueID := uuid.New()
	ticket := newTestTicket(tenantID, &queueID)

	ticketInt := newIntegration("ticket-hook", models.TypeWebhook)
	queueInt := newIntegration("queue-hook", models.TypeN8N)
	sessionInt := newIntegration("session-hook", models.TypeAPI)

	ticketRepo := &fakeTicketBindings{bindings: []models.TicketBinding{
		{TicketID: ticket.ID, IntegrationID: ticketInt.ID, Integration: ticketInt, IsActive: true},
	}}
	queueRepo := &fakeQueueBindings{bindings: []models.QueueBinding{
		{QueueID: queueID, IntegrationID: queueInt.ID, Integration: queueInt, IsActive: true},
	}}
	sessionRepo := &fakeSessionBindings{binding: &models.SessionBinding{
		TenantID:      tenantID,
		SessionID:     ticket.SessionID,
		IntegrationID: sessionInt.ID,
		Integration:   sessionInt,
		IsActive:      true,
	}}

	r := NewResolver(ticketRepo, queueRepo, sessionRepo, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	assert.Len(t, resolved, 3)
}

func TestResolveDedupKeepsHighestSpecificity(t *testing.T) {
	tenantID := uuid.New()
	queueID := uuid.New()
	ticket := newTestTicket(tenantID, &queueID)

	// Cùng integration bind ở queue và session, overrides khác nhau
	shared := newIntegration("shared", models.TypeTypebot)
	shared.Bot = models.BotSettings{KeywordFinish: "bye"}

	queueRepo := &fakeQueueBindings{bindings: []models.QueueBinding{
		{
			QueueID:       queueID,
			IntegrationID: shared.ID,
			Integration:   shared,
			Overrides:     models.BotOverrides{KeywordFinish: strPtr("stop")},
			IsActive:      true,
		},
	}}
	sessionRepo := &fakeSessionBindings{binding: &models.SessionBinding{
		TenantID:      tenantID,
		SessionID:     ticket.SessionID,
		IntegrationID: shared.ID,
		Integration:   shared,
		Overrides:     models.BotOverrides{KeywordFinish: strPtr("quit")},
		IsActive:      true,
	}}

	r := NewResolver(&fakeTicketBindings{}, queueRepo, sessionRepo, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	// Queue thắng session, và override của queue được áp dụng
	assert.Equal(t, SpecificityQueue, resolved[0].Specificity)
	assert.Equal(t, "stop", resolved[0].Bot.KeywordFinish)
}

func TestResolveTicketBindingBeatsQueue(t *testing.T) {
	tenantID := uuid.New()
	queueID := uuid.New()
	ticket := newTestTicket(tenantID, &queueID)

	shared := newIntegration("shared", models.TypeWebhook)

	ticketRepo := &fakeTicketBindings{bindings: []models.TicketBinding{
		{TicketID: ticket.ID, IntegrationID: shared.ID, Integration: shared, IsActive: true},
	}}
	queueRepo := &fakeQueueBindings{bindings: []models.QueueBinding{
		{QueueID: queueID, IntegrationID: shared.ID, Integration: shared, IsActive: true},
	}}

	r := NewResolver(ticketRepo, queueRepo, &fakeSessionBindings{}, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, SpecificityTicket, resolved[0].Specificity)
}

func TestResolveSkipsQueueBindingsWhenTicketHasNoQueue(t *testing.T) {
	tenantID := uuid.New()
	ticket := newTestTicket(tenantID, nil)

	queueInt := newIntegration("queue-hook", models.TypeWebhook)
	queueRepo := &fakeQueueBindings{bindings: []models.QueueBinding{
		{QueueID: uuid.New(), IntegrationID: queueInt.ID, Integration: queueInt, IsActive: true},
	}}

	r := NewResolver(&fakeTicketBindings{}, queueRepo, &fakeSessionBindings{}, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveTriggerOnlyWithoutQueueGate(t *testing.T) {
	tenantID := uuid.New()
	sessionInt := newIntegration("session-hook", models.TypeWebhook)

	makeRepo := func(sessionID uuid.UUID) *fakeSessionBindings {
		return &fakeSessionBindings{binding: &models.SessionBinding{
			TenantID:                tenantID,
			SessionID:               sessionID,
			IntegrationID:           sessionInt.ID,
			Integration:             sessionInt,
			TriggerOnlyWithoutQueue: true,
			IsActive:                true,
		}}
	}

	// Ticket chưa có queue: binding áp dụng
	noQueue := newTestTicket(tenantID, nil)
	r := NewResolver(&fakeTicketBindings{}, &fakeQueueBindings{}, makeRepo(noQueue.SessionID), zap.NewNop())
	resolved, err := r.Resolve(context.Background(), noQueue)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)

	// Ticket đã có queue: binding bị bỏ qua
	queueID := uuid.New()
	withQueue := newTestTicket(tenantID, &queueID)
	r = NewResolver(&fakeTicketBindings{}, &fakeQueueBindings{}, makeRepo(withQueue.SessionID), zap.NewNop())
	resolved, err = r.Resolve(context.Background(), withQueue)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveDropsInactiveIntegration(t *testing.T) {
	tenantID := uuid.New()
	ticket := newTestTicket(tenantID, nil)

	inactive := newIntegration("disabled", models.TypeWebhook)
	inactive.IsActive = false

	ticketRepo := &fakeTicketBindings{bindings: []models.TicketBinding{
		{TicketID: ticket.ID, IntegrationID: inactive.ID, Integration: inactive, IsActive: true},
	}}

	r := NewResolver(ticketRepo, &fakeQueueBindings{}, &fakeSessionBindings{}, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveMergesOverridesOntoBaseBot(t *testing.T) {
	tenantID := uuid.New()
	ticket := newTestTicket(tenantID, nil)

	bot := newIntegration("bot", models.TypeTypebot)
	bot.Bot = models.BotSettings{
		BotURL:        "http://typebot.local",
		BotSlug:       "support",
		KeywordFinish: "sair",
		ExpiryMinutes: 30,
	}

	expiry := 5
	sessionRepo := &fakeSessionBindings{binding: &models.SessionBinding{
		TenantID:      tenantID,
		SessionID:     ticket.SessionID,
		IntegrationID: bot.ID,
		Integration:   bot,
		Overrides: models.BotOverrides{
			ExpiryMinutes: &expiry,
			BotSlug:       strPtr("sales"),
		},
		IsActive: true,
	}}

	r := NewResolver(&fakeTicketBindings{}, &fakeQueueBindings{}, sessionRepo, zap.NewNop())
	resolved, err := r.Resolve(context.Background(), ticket)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	// Trường bị override lấy giá trị binding, trường còn lại giữ của base
	assert.Equal(t, 5, resolved[0].Bot.ExpiryMinutes)
	assert.Equal(t, "sales", resolved[0].Bot.BotSlug)
	assert.Equal(t, "sair", resolved[0].Bot.KeywordFinish)
	assert.Equal(t, "http://typebot.local", resolved[0].Bot.BotURL)
}
