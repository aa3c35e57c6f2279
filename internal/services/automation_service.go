package services

import (
	"context"

	"whatsdesk/internal/automation"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Automation Service
// Orchestration layer nối ticket lifecycle với dispatch engine và bot
// session state machine. Đây là entry point duy nhất mà phần còn lại của
// helpdesk gọi vào automation core
// ===========================================================================

// AutomationService interface cho automation orchestration
type AutomationService interface {
	// OnTicketEvent xử lý một lifecycle event: dispatch async qua tất cả
	// integrations đã resolve, và activate bot nếu ticket mới eligible
	// Không bao giờ trả lỗi vì backend bên ngoài fail
	OnTicketEvent(ctx context.Context, event automation.Event, ticketID uuid.UUID, extras automation.Extras) error

	// HandleInboundMessage đưa message khách gửi qua bot state machine
	HandleInboundMessage(ctx context.Context, ticketID uuid.UUID, content string) (*automation.InboundResult, error)

	// ResolvePreview trả về các integrations sẽ áp dụng cho ticket,
	// dùng cho admin console debug binding setup
	ResolvePreview(ctx context.Context, tenantID, ticketID uuid.UUID) ([]automation.ResolvedIntegration, error)

	// ManualTrigger dispatch đồng bộ và trả về report đầy đủ
	ManualTrigger(ctx context.Context, tenantID, ticketID uuid.UUID, event automation.Event, extras automation.Extras) (*automation.DispatchReport, error)

	// TestConnection gọi thử integration với payload synthetic
	TestConnection(ctx context.Context, tenantID, integrationID uuid.UUID) (*automation.DispatchResult, error)
}

// automationService triển khai AutomationService
type automationService struct {
	integrations repositories.IntegrationRepository
	tickets      repositories.TicketStore
	resolver     automation.Resolver
	dispatcher   automation.Dispatcher
	sessions     automation.SessionManager
	logger       *zap.Logger
}

// NewAutomationService tạo instance mới của AutomationService
func NewAutomationService(
	integrations repositories.IntegrationRepository,
	tickets repositories.TicketStore,
	resolver automation.Resolver,
	dispatcher automation.Dispatcher,
	sessions automation.SessionManager,
	logger *zap.Logger,
) AutomationService {
	return &automationService{
		integrations: integrations,
		tickets:      tickets,
		resolver:     resolver,
		dispatcher:   dispatcher,
		sessions:     sessions,
		logger:       logger,
	}
}

// OnTicketEvent xử lý lifecycle event của ticket
func (s *automationService) OnTicketEvent(ctx context.Context, event automation.Event, ticketID uuid.UUID, extras automation.Extras) error {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return mapDBError(err)
	}

	// Bot activation chỉ xảy ra khi ticket mới tạo
	if event == automation.EventTicketCreated {
		if _, err := s.sessions.ActivateIfEligible(ctx, ticket); err != nil {
			// Activation fail không chặn dispatch
			s.logger.Warn("bot activation failed",
				zap.String("ticket_id", ticketID.String()),
				zap.Error(err),
			)
		}
	}

	// Fire-and-forget: event đã commit, dispatch không chặn caller
	s.dispatcher.DispatchAsync(event, ticket, extras)
	return nil
}

// HandleInboundMessage đưa message qua bot state machine
func (s *automationService) HandleInboundMessage(ctx context.Context, ticketID uuid.UUID, content string) (*automation.InboundResult, error) {
	result, err := s.sessions.HandleInbound(ctx, ticketID, content)
	if err != nil {
		return nil, mapDBError(err)
	}
	return result, nil
}

// ResolvePreview resolve integrations cho ticket không dispatch
func (s *automationService) ResolvePreview(ctx context.Context, tenantID, ticketID uuid.UUID) ([]automation.ResolvedIntegration, error) {
	ticket, err := s.loadTenantTicket(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, ticket)
}

// ManualTrigger dispatch đồng bộ, trả về report để agent xem kết quả
func (s *automationService) ManualTrigger(ctx context.Context, tenantID, ticketID uuid.UUID, event automation.Event, extras automation.Extras) (*automation.DispatchReport, error) {
	ticket, err := s.loadTenantTicket(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}

	if event == "" {
		event = automation.EventManualTrigger
	}

	return s.dispatcher.Dispatch(ctx, event, ticket, extras)
}

// TestConnection gọi thử integration với ticket synthetic
// Kết quả chỉ phản ánh khả năng kết nối, không ghi gì vào DB
func (s *automationService) TestConnection(ctx context.Context, tenantID, integrationID uuid.UUID) (*automation.DispatchResult, error) {
	integration, err := s.integrations.FindByID(ctx, tenantID, integrationID)
	if err != nil {
		return nil, mapDBError(err)
	}

	ticket := &models.Ticket{
		TenantID: tenantID,
		Status:   "open",
		Contact: models.Contact{
			Name:   "Connection Test",
			Number: "+10000000000",
		},
	}
	ticket.ID = uuid.New()

	ri := automation.ResolvedIntegration{
		Integration: *integration,
		Bot:         integration.Bot,
	}

	result := s.dispatcher.Call(ctx, automation.EventTestConnection, ri, ticket, automation.Extras{
		"test": true,
	})
	return &result, nil
}

// loadTenantTicket load ticket và verify nó thuộc tenant
func (s *automationService) loadTenantTicket(ctx context.Context, tenantID, ticketID uuid.UUID) (*models.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, mapDBError(err)
	}
	if ticket.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return ticket, nil
}
