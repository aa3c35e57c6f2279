package automation

import (
	"context"
	"testing"
	"time"

	"whatsdesk/internal/channel"
	"whatsdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeTicketStore lưu tickets trong memory
type fakeTicketStore struct {
	tickets map[uuid.UUID]*models.Ticket
}

func newFakeTicketStore(tickets ...*models.Ticket) *fakeTicketStore {
	m := make(map[uuid.UUID]*models.Ticket)
	for _, t := range tickets {
		m[t.ID] = t
	}
	return &fakeTicketStore{tickets: m}
}

func (f *fakeTicketStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketStore) Update(ctx context.Context, ticket *models.Ticket) error {
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

// fakeDispatcher ghi lại Call và trả kết quả cấu hình sẵn
type fakeDispatcher struct {
	calls  []Event
	result DispatchResult
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, event Event, ticket *models.Ticket, extras Extras) (*DispatchReport, error) {
	return &DispatchReport{Event: event, TicketID: ticket.ID}, nil
}

func (f *fakeDispatcher) DispatchAsync(event Event, ticket *models.Ticket, extras Extras) {}

func (f *fakeDispatcher) Call(ctx context.Context, event Event, ri ResolvedIntegration, ticket *models.Ticket, extras Extras) DispatchResult {
	f.calls = append(f.calls, event)
	return f.result
}

// botFixture gom dependencies cho các test bot session
type botFixture struct {
	store      *fakeTicketStore
	dispatcher *fakeDispatcher
	sender     *channel.MockSender
	manager    SessionManager
	ticket     *models.Ticket
	bot        models.Integration
}

func newBotFixture(t *testing.T, settings models.BotSettings, active bool) *botFixture {
	t.Helper()

	tenantID := uuid.New()
	ticket := newTestTicket(tenantID, nil)
	ticket.Contact = models.Contact{Name: "Ana", Number: "+5511999990000"}

	if active {
		sessionID := uuid.New().String()
		now := time.Now()
		ticket.StartBotSession(sessionID, now)
		ticket.UseIntegration = true
	}

	bot := newIntegration("support-bot", models.TypeTypebot)
	bot.Bot = settings

	store := newFakeTicketStore(ticket)
	dispatcher := &fakeDispatcher{result: DispatchResult{Status: StatusOK}}
	sender := channel.NewMockSender()

	resolver := &stubResolver{resolved: []ResolvedIntegration{{
		Integration: bot,
		Specificity: SpecificitySession,
		Bot:         settings,
	}}}

	manager := NewSessionManager(store, resolver, dispatcher, sender, zap.NewNop())

	return &botFixture{
		store:      store,
		dispatcher: dispatcher,
		sender:     sender,
		manager:    manager,
		ticket:     ticket,
		bot:        bot,
	}
}

func defaultBotSettings() models.BotSettings {
	return models.BotSettings{
		BotURL:         "http://typebot.local",
		BotSlug:        "support",
		KeywordFinish:  "sair",
		KeywordRestart: "#restart",
		UnknownMessage: "Desculpe, não entendi",
		RestartMessage: "Vamos começar de novo",
		ReplyDelayMs:   10,
		ExpiryMinutes:  60,
	}
}

// ===========================================================================
// Activation
// ===========================================================================

func TestActivateIfEligibleStartsSession(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), false)

	result, err := f.manager.ActivateIfEligible(context.Background(), f.ticket)
	require.NoError(t, err)
	assert.Equal(t, StateBotActive, result.State)
	assert.Equal(t, TransitionActivated, result.Transition)

	saved := f.store.tickets[f.ticket.ID]
	assert.True(t, saved.BotActive)
	assert.True(t, saved.IsBotControlled)
	assert.True(t, saved.UseIntegration)
	require.NotNil(t, saved.BotSessionID)
	require.NotNil(t, saved.BoundIntegrationID)
	assert.Equal(t, f.bot.ID, *saved.BoundIntegrationID)
}

func TestActivateIfEligibleNoopWithoutBot(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), false)

	// Resolver không trả về bot integration nào
	f.manager = NewSessionManager(f.store, &stubResolver{}, f.dispatcher, f.sender, zap.NewNop())

	result, err := f.manager.ActivateIfEligible(context.Background(), f.ticket)
	require.NoError(t, err)
	assert.Equal(t, StateNoBot, result.State)
	assert.Equal(t, TransitionNone, result.Transition)
	assert.False(t, f.store.tickets[f.ticket.ID].BotActive)
}

func TestActivateIfEligibleIdempotentWhenActive(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)

	result, err := f.manager.ActivateIfEligible(context.Background(), f.ticket)
	require.NoError(t, err)
	assert.Equal(t, StateBotActive, result.State)
	assert.Equal(t, TransitionNone, result.Transition)
}

// ===========================================================================
// Keyword Handling
// ===========================================================================

func TestHandleInboundKeywordFinishCaseInsensitive(t *testing.T) {
	for _, input := range []string{"sair", "SAIR", "Sair", "  sAiR  "} {
		f := newBotFixture(t, defaultBotSettings(), true)

		result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, input)
		require.NoError(t, err)
		assert.Equal(t, StateNoBot, result.State, "input %q", input)
		assert.Equal(t, TransitionFinished, result.Transition, "input %q", input)

		saved := f.store.tickets[f.ticket.ID]
		assert.False(t, saved.BotActive)
		assert.False(t, saved.IsBotControlled)
		assert.False(t, saved.UseIntegration)
		assert.Nil(t, saved.BotSessionID)
	}
}

func TestHandleInboundKeywordRestartIssuesNewSession(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)
	oldSessionID := *f.store.tickets[f.ticket.ID].BotSessionID

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "#restart")
	require.NoError(t, err)
	assert.Equal(t, StateBotActive, result.State)
	assert.Equal(t, TransitionRestarted, result.Transition)
	assert.Equal(t, "Vamos começar de novo", result.RepliedWith)

	saved := f.store.tickets[f.ticket.ID]
	require.NotNil(t, saved.BotSessionID)
	assert.NotEqual(t, oldSessionID, *saved.BotSessionID)
	assert.True(t, saved.BotActive)

	// Restart message được gửi ra channel
	require.Len(t, f.sender.Sent, 1)
	assert.Equal(t, "Vamos começar de novo", f.sender.Sent[0].Content)
	assert.Equal(t, "+5511999990000", f.sender.Sent[0].Number)
}

// ===========================================================================
// Expiry
// ===========================================================================

func TestHandleInboundLazyExpiry(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)

	// Hoạt động cuối cách đây 2 giờ, expiry 60 phút
	past := time.Now().Add(-2 * time.Hour)
	f.store.tickets[f.ticket.ID].BotSessionLastActivity = &past

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateNoBot, result.State)
	assert.Equal(t, TransitionExpired, result.Transition)
	assert.False(t, f.store.tickets[f.ticket.ID].BotActive)

	// Message gây expiry không được forward cho bot
	assert.Empty(t, f.dispatcher.calls)
}

func TestHandleInboundZeroExpiryNeverExpires(t *testing.T) {
	settings := defaultBotSettings()
	settings.ExpiryMinutes = 0
	f := newBotFixture(t, settings, true)

	past := time.Now().Add(-24 * 365 * time.Hour)
	f.store.tickets[f.ticket.ID].BotSessionLastActivity = &past

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateBotActive, result.State)
	assert.Equal(t, TransitionForwarded, result.Transition)
}

// ===========================================================================
// Forwarding và Fallback
// ===========================================================================

func TestHandleInboundForwardsToBot(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)

	before := *f.store.tickets[f.ticket.ID].BotSessionLastActivity

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "I need help")
	require.NoError(t, err)
	assert.Equal(t, TransitionForwarded, result.Transition)
	assert.Empty(t, result.RepliedWith)

	require.Len(t, f.dispatcher.calls, 1)
	assert.Equal(t, EventMessageReceived, f.dispatcher.calls[0])

	// Activity được refresh
	after := f.store.tickets[f.ticket.ID].BotSessionLastActivity
	require.NotNil(t, after)
	assert.True(t, !after.Before(before))
}

func TestHandleInboundUnknownInputFallback(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)
	f.dispatcher.result = DispatchResult{Status: StatusOK, BotUnknownInput: true}

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "asdfgh")
	require.NoError(t, err)
	assert.Equal(t, StateBotActive, result.State)
	assert.Equal(t, "Desculpe, não entendi", result.RepliedWith)

	require.Len(t, f.sender.Sent, 1)
	assert.Equal(t, "Desculpe, não entendi", f.sender.Sent[0].Content)
}

func TestHandleInboundForwardFailureKeepsState(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)
	f.dispatcher.result = DispatchResult{Status: StatusFailed, Error: "connection refused"}

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "hello")
	require.NoError(t, err)

	// Lỗi gọi bot không revert state, message tiếp theo thử lại
	assert.Equal(t, StateBotActive, result.State)
	assert.True(t, f.store.tickets[f.ticket.ID].BotActive)
	assert.Empty(t, f.sender.Sent)
}

func TestHandleInboundNoBotActive(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), false)

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateNoBot, result.State)
	assert.Equal(t, TransitionNone, result.Transition)
	assert.Empty(t, f.dispatcher.calls)
}

func TestHandleInboundClearsOrphanedSession(t *testing.T) {
	f := newBotFixture(t, defaultBotSettings(), true)

	// Bot integration đã bị gỡ trong khi session còn active
	f.manager = NewSessionManager(f.store, &stubResolver{}, f.dispatcher, f.sender, zap.NewNop())

	result, err := f.manager.HandleInbound(context.Background(), f.ticket.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, StateNoBot, result.State)
	assert.Equal(t, TransitionFinished, result.Transition)
	assert.False(t, f.store.tickets[f.ticket.ID].BotActive)
}
