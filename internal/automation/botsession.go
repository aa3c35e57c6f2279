package automation

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"whatsdesk/internal/channel"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Bot Session State Machine
// Quản lý vòng đời bot session trên ticket: activate khi ticket mới resolve
// ra bot integration, forward input cho remote bot, xử lý keyword
// finish/restart, lazy expiry, và fallback khi bot không hiểu input
// ===========================================================================

// SessionState trạng thái bot của một ticket
type SessionState string

const (
	// StateNoBot ticket không có bot session active
	StateNoBot SessionState = "no_bot"

	// StateBotActive bot đang sở hữu cuộc hội thoại
	StateBotActive SessionState = "bot_active"
)

// Transition thay đổi trạng thái xảy ra khi xử lý một inbound message
type Transition string

const (
	// TransitionNone không có thay đổi
	TransitionNone Transition = "none"

	// TransitionActivated bot session mới được kích hoạt
	TransitionActivated Transition = "activated"

	// TransitionForwarded input được forward cho remote bot
	TransitionForwarded Transition = "forwarded"

	// TransitionFinished khách gõ keyword finish, trả quyền cho agent
	TransitionFinished Transition = "finished"

	// TransitionRestarted khách gõ keyword restart, session id mới được cấp
	TransitionRestarted Transition = "restarted"

	// TransitionExpired session quá hạn, phát hiện lazy khi message đến
	TransitionExpired Transition = "expired"
)

// InboundResult kết quả xử lý một inbound message
type InboundResult struct {
	// State trạng thái bot sau khi xử lý
	State SessionState `json:"state"`

	// Transition thay đổi đã xảy ra
	Transition Transition `json:"transition"`

	// RepliedWith nội dung reply tự động đã gửi (nếu có)
	RepliedWith string `json:"replied_with,omitempty"`
}

// SessionManager interface quản lý bot session
type SessionManager interface {
	// ActivateIfEligible kích hoạt bot session khi ticket mới tạo
	// resolve ra một bot integration. No-op nếu không eligible
	ActivateIfEligible(ctx context.Context, ticket *models.Ticket) (*InboundResult, error)

	// HandleInbound xử lý một message khách gửi vào ticket
	HandleInbound(ctx context.Context, ticketID uuid.UUID, text string) (*InboundResult, error)
}

// ===========================================================================
// Session Manager Implementation
// ===========================================================================

// stripeCount số mutex stripe, phải là lũy thừa của 2
const stripeCount = 64

// sessionManager triển khai SessionManager
// Mỗi ticket được serialize qua stripe mutex để hai message đến gần nhau
// không đua nhau ghi bot state
type sessionManager struct {
	tickets    repositories.TicketStore
	resolver   Resolver
	dispatcher Dispatcher
	sender     channel.Sender
	logger     *zap.Logger
	now        func() time.Time

	stripes [stripeCount]sync.Mutex
}

// NewSessionManager tạo instance mới của SessionManager
func NewSessionManager(
	tickets repositories.TicketStore,
	resolver Resolver,
	dispatcher Dispatcher,
	sender channel.Sender,
	logger *zap.Logger,
) SessionManager {
	return &sessionManager{
		tickets:    tickets,
		resolver:   resolver,
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		now:        time.Now,
	}
}

// lockTicket khóa stripe tương ứng với ticket, trả về hàm unlock
func (m *sessionManager) lockTicket(id uuid.UUID) func() {
	h := fnv.New32a()
	h.Write(id[:])
	mu := &m.stripes[h.Sum32()&(stripeCount-1)]
	mu.Lock()
	return mu.Unlock
}

// ActivateIfEligible kích hoạt bot khi ticket mới resolve ra bot integration
// Điều kiện: ticket chưa có bot active và integration có độ ưu tiên cao nhất
// là loại bot
func (m *sessionManager) ActivateIfEligible(ctx context.Context, ticket *models.Ticket) (*InboundResult, error) {
	unlock := m.lockTicket(ticket.ID)
	defer unlock()

	if ticket.BotActive {
		return &InboundResult{State: StateBotActive, Transition: TransitionNone}, nil
	}

	ri, found, err := m.resolveBot(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if !found {
		return &InboundResult{State: StateNoBot, Transition: TransitionNone}, nil
	}

	now := m.now()
	ticket.StartBotSession(uuid.New().String(), now)
	ticket.UseIntegration = true
	id := ri.Integration.ID
	ticket.BoundIntegrationID = &id

	if err := m.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.Wrap(err, "activate bot session")
	}

	m.logger.Info("bot session activated",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("integration_id", ri.Integration.ID.String()),
	)

	return &InboundResult{State: StateBotActive, Transition: TransitionActivated}, nil
}

// HandleInbound xử lý một inbound message theo state machine
func (m *sessionManager) HandleInbound(ctx context.Context, ticketID uuid.UUID, text string) (*InboundResult, error) {
	unlock := m.lockTicket(ticketID)
	defer unlock()

	ticket, err := m.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !ticket.BotActive {
		return &InboundResult{State: StateNoBot, Transition: TransitionNone}, nil
	}

	ri, found, err := m.resolveBot(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if !found {
		// Bot integration đã bị gỡ/deactivate trong khi session còn active
		ticket.ClearBotSession()
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.Wrap(err, "clear orphaned bot session")
		}
		return &InboundResult{State: StateNoBot, Transition: TransitionFinished}, nil
	}

	bot := ri.Bot
	now := m.now()

	// Expiry check lazy: chỉ khi message đến, không có background job
	if ticket.BotSessionExpired(bot.ExpiryMinutes, now) {
		ticket.ClearBotSession()
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.Wrap(err, "expire bot session")
		}
		m.logger.Info("bot session expired",
			zap.String("ticket_id", ticket.ID.String()),
			zap.Int("expiry_minutes", bot.ExpiryMinutes),
		)
		return &InboundResult{State: StateNoBot, Transition: TransitionExpired}, nil
	}

	trimmed := strings.TrimSpace(text)

	// Keyword matching không phân biệt hoa thường
	if bot.KeywordFinish != "" && strings.EqualFold(trimmed, bot.KeywordFinish) {
		ticket.ClearBotSession()
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.Wrap(err, "finish bot session")
		}
		m.logger.Info("bot session finished by keyword",
			zap.String("ticket_id", ticket.ID.String()),
		)
		return &InboundResult{State: StateNoBot, Transition: TransitionFinished}, nil
	}

	if bot.KeywordRestart != "" && strings.EqualFold(trimmed, bot.KeywordRestart) {
		ticket.StartBotSession(uuid.New().String(), now)
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.Wrap(err, "restart bot session")
		}

		result := &InboundResult{State: StateBotActive, Transition: TransitionRestarted}
		if bot.RestartMessage != "" {
			m.reply(ctx, ticket, bot.RestartMessage)
			result.RepliedWith = bot.RestartMessage
		}
		return result, nil
	}

	// Input thường: refresh activity rồi forward cho remote bot
	ticket.TouchBotSession(now)
	if err := m.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.Wrap(err, "touch bot session")
	}

	extras := Extras{"message": text}
	if ticket.BotSessionID != nil {
		extras["bot_session_id"] = *ticket.BotSessionID
	}
	callResult := m.dispatcher.Call(ctx, EventMessageReceived, ri, ticket, extras)

	result := &InboundResult{State: StateBotActive, Transition: TransitionForwarded}

	if !callResult.OK() {
		// Lỗi gọi bot không revert state, chỉ log, message tiếp theo thử lại
		m.logger.Warn("bot forward failed",
			zap.String("ticket_id", ticket.ID.String()),
			zap.String("error", callResult.Error),
		)
		return result, nil
	}

	// Remote bot báo không hiểu input: chờ replyDelayMs rồi gửi fallback
	if callResult.BotUnknownInput && bot.UnknownMessage != "" {
		if bot.ReplyDelayMs > 0 {
			timer := time.NewTimer(time.Duration(bot.ReplyDelayMs) * time.Millisecond)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return result, nil
			}
		}
		m.reply(ctx, ticket, bot.UnknownMessage)
		result.RepliedWith = bot.UnknownMessage
	}

	return result, nil
}

// resolveBot tìm bot integration áp dụng cho ticket
// Trả về integration bot có specificity cao nhất, found=false nếu không có
func (m *sessionManager) resolveBot(ctx context.Context, ticket *models.Ticket) (ResolvedIntegration, bool, error) {
	resolved, err := m.resolver.Resolve(ctx, ticket)
	if err != nil {
		return ResolvedIntegration{}, false, err
	}

	var best ResolvedIntegration
	found := false
	for _, ri := range resolved {
		if !ri.Integration.IsBot() {
			continue
		}
		if !found || ri.Specificity > best.Specificity {
			best = ri
			found = true
		}
	}
	return best, found, nil
}

// reply gửi message tự động cho khách, lỗi chỉ log không propagate
func (m *sessionManager) reply(ctx context.Context, ticket *models.Ticket, content string) {
	msg := channel.OutboundMessage{
		TicketID:  ticket.ID,
		SessionID: ticket.SessionID,
		Number:    ticket.Contact.Number,
		Content:   content,
	}
	if _, err := m.sender.Send(ctx, msg); err != nil {
		m.logger.Warn("auto reply failed",
			zap.String("ticket_id", ticket.ID.String()),
			zap.Error(err),
		)
	}
}
