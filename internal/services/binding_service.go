package services

import (
	"context"

	"whatsdesk/internal/dto"
	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Binding Service
// Bind/unbind integrations vào ba scope: ticket, queue, session
// Mọi thao tác đều verify integration thuộc tenant trước khi chạm binding
// ===========================================================================

// BindingService interface cho binding management
type BindingService interface {
	// BindQueue bind integration vào queue (idempotent theo cặp queue+integration)
	BindQueue(ctx context.Context, tenantID uuid.UUID, req *dto.BindQueueRequest) (*models.QueueBinding, error)

	// UpdateQueueBinding cập nhật binding queue (bật/tắt, đổi overrides)
	UpdateQueueBinding(ctx context.Context, tenantID, queueID, integrationID uuid.UUID, req *dto.UpdateBindingRequest) (*models.QueueBinding, error)

	// UnbindQueue gỡ binding queue
	UnbindQueue(ctx context.Context, tenantID, queueID, integrationID uuid.UUID) error

	// ListQueueBindings lấy bindings của queue
	ListQueueBindings(ctx context.Context, tenantID, queueID uuid.UUID) ([]models.QueueBinding, error)

	// BindSession bind integration vào session, thay thế binding cũ nếu có
	BindSession(ctx context.Context, tenantID uuid.UUID, req *dto.BindSessionRequest) (*models.SessionBinding, error)

	// UpdateSessionBinding cập nhật binding session (bật/tắt, đổi gate, overrides)
	UpdateSessionBinding(ctx context.Context, tenantID, sessionID uuid.UUID, req *dto.UpdateSessionBindingRequest) (*models.SessionBinding, error)

	// UnbindSession gỡ binding session
	UnbindSession(ctx context.Context, tenantID, sessionID uuid.UUID) error

	// GetSessionBinding lấy binding của session, nil nếu chưa bind
	GetSessionBinding(ctx context.Context, tenantID, sessionID uuid.UUID) (*models.SessionBinding, error)

	// BindTicket bind integration trực tiếp vào ticket (idempotent)
	BindTicket(ctx context.Context, tenantID, ticketID uuid.UUID, req *dto.BindTicketRequest) (*models.TicketBinding, error)

	// UpdateTicketBinding cập nhật binding ticket (bật/tắt, đổi overrides)
	UpdateTicketBinding(ctx context.Context, tenantID, ticketID, integrationID uuid.UUID, req *dto.UpdateBindingRequest) (*models.TicketBinding, error)

	// UnbindTicket gỡ binding ticket
	UnbindTicket(ctx context.Context, tenantID, ticketID, integrationID uuid.UUID) error

	// ListTicketBindings lấy bindings của ticket
	ListTicketBindings(ctx context.Context, tenantID, ticketID uuid.UUID) ([]models.TicketBinding, error)
}

// bindingService triển khai BindingService
type bindingService struct {
	integrations    repositories.IntegrationRepository
	ticketBindings  repositories.TicketBindingRepository
	queueBindings   repositories.QueueBindingRepository
	sessionBindings repositories.SessionBindingRepository
	logger          *zap.Logger
}

// NewBindingService tạo instance mới của BindingService
func NewBindingService(
	integrations repositories.IntegrationRepository,
	ticketBindings repositories.TicketBindingRepository,
	queueBindings repositories.QueueBindingRepository,
	sessionBindings repositories.SessionBindingRepository,
	logger *zap.Logger,
) BindingService {
	return &bindingService{
		integrations:    integrations,
		ticketBindings:  ticketBindings,
		queueBindings:   queueBindings,
		sessionBindings: sessionBindings,
		logger:          logger,
	}
}

// checkIntegration verify integration tồn tại trong tenant
func (s *bindingService) checkIntegration(ctx context.Context, tenantID, integrationID uuid.UUID) error {
	if _, err := s.integrations.FindByID(ctx, tenantID, integrationID); err != nil {
		return mapDBError(err)
	}
	return nil
}

// ===========================================================================
// Queue Bindings
// ===========================================================================

// BindQueue bind integration vào queue
func (s *bindingService) BindQueue(ctx context.Context, tenantID uuid.UUID, req *dto.BindQueueRequest) (*models.QueueBinding, error) {
	if err := s.checkIntegration(ctx, tenantID, req.IntegrationID); err != nil {
		return nil, err
	}

	binding := &models.QueueBinding{
		TenantID:      tenantID,
		QueueID:       req.QueueID,
		IntegrationID: req.IntegrationID,
		Overrides:     req.Overrides,
		IsActive:      true,
	}

	result, created, err := s.queueBindings.FindOrCreate(ctx, binding)
	if err != nil {
		return nil, mapDBError(err)
	}

	if created {
		s.logger.Info("queue binding created",
			zap.String("queue_id", req.QueueID.String()),
			zap.String("integration_id", req.IntegrationID.String()),
		)
	}
	return result, nil
}

// UpdateQueueBinding cập nhật binding queue, dùng để deactivate mà không unbind
func (s *bindingService) UpdateQueueBinding(ctx context.Context, tenantID, queueID, integrationID uuid.UUID, req *dto.UpdateBindingRequest) (*models.QueueBinding, error) {
	bindings, err := s.queueBindings.FindByQueue(ctx, queueID, true)
	if err != nil {
		return nil, mapDBError(err)
	}

	for i := range bindings {
		b := &bindings[i]
		if b.TenantID != tenantID || b.IntegrationID != integrationID {
			continue
		}
		if req.IsActive != nil {
			b.IsActive = *req.IsActive
		}
		if req.Overrides != nil {
			b.Overrides = *req.Overrides
		}
		if err := s.queueBindings.Update(ctx, b); err != nil {
			return nil, mapDBError(err)
		}
		s.logger.Info("queue binding updated",
			zap.String("queue_id", queueID.String()),
			zap.String("integration_id", integrationID.String()),
			zap.Bool("is_active", b.IsActive),
		)
		return b, nil
	}
	return nil, apperrors.ErrNotFound
}

// UnbindQueue gỡ binding queue
func (s *bindingService) UnbindQueue(ctx context.Context, tenantID, queueID, integrationID uuid.UUID) error {
	if err := s.checkIntegration(ctx, tenantID, integrationID); err != nil {
		return err
	}
	if err := s.queueBindings.Delete(ctx, queueID, integrationID); err != nil {
		return mapDBError(err)
	}
	return nil
}

// ListQueueBindings lấy bindings của queue
func (s *bindingService) ListQueueBindings(ctx context.Context, tenantID, queueID uuid.UUID) ([]models.QueueBinding, error) {
	bindings, err := s.queueBindings.FindByQueue(ctx, queueID, true)
	if err != nil {
		return nil, mapDBError(err)
	}

	// Lọc theo tenant, queue id do client gửi, không tin được
	out := bindings[:0]
	for _, b := range bindings {
		if b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ===========================================================================
// Session Bindings
// ===========================================================================

// BindSession bind integration vào session WhatsApp
// Session đã có binding thì binding cũ bị thay thế (upsert)
func (s *bindingService) BindSession(ctx context.Context, tenantID uuid.UUID, req *dto.BindSessionRequest) (*models.SessionBinding, error) {
	if err := s.checkIntegration(ctx, tenantID, req.IntegrationID); err != nil {
		return nil, err
	}

	binding := &models.SessionBinding{
		TenantID:                tenantID,
		SessionID:               req.SessionID,
		IntegrationID:           req.IntegrationID,
		TriggerOnlyWithoutQueue: req.TriggerOnlyWithoutQueue,
		Overrides:               req.Overrides,
		IsActive:                true,
	}

	if err := s.sessionBindings.Upsert(ctx, binding); err != nil {
		return nil, mapDBError(err)
	}

	s.logger.Info("session binding upserted",
		zap.String("session_id", req.SessionID.String()),
		zap.String("integration_id", req.IntegrationID.String()),
	)

	// Đọc lại để trả về row thật sau upsert
	return s.sessionBindings.FindBySession(ctx, tenantID, req.SessionID, true)
}

// UpdateSessionBinding cập nhật binding session, dùng để deactivate mà không unbind
// Ghi lại qua Upsert: unique index (session, tenant) đảm bảo update đúng row cũ
func (s *bindingService) UpdateSessionBinding(ctx context.Context, tenantID, sessionID uuid.UUID, req *dto.UpdateSessionBindingRequest) (*models.SessionBinding, error) {
	binding, err := s.sessionBindings.FindBySession(ctx, tenantID, sessionID, true)
	if err != nil {
		return nil, mapDBError(err)
	}
	if binding == nil {
		return nil, apperrors.ErrNotFound
	}

	if req.IsActive != nil {
		binding.IsActive = *req.IsActive
	}
	if req.TriggerOnlyWithoutQueue != nil {
		binding.TriggerOnlyWithoutQueue = *req.TriggerOnlyWithoutQueue
	}
	if req.Overrides != nil {
		binding.Overrides = *req.Overrides
	}

	if err := s.sessionBindings.Upsert(ctx, binding); err != nil {
		return nil, mapDBError(err)
	}

	s.logger.Info("session binding updated",
		zap.String("session_id", sessionID.String()),
		zap.Bool("is_active", binding.IsActive),
	)
	return s.sessionBindings.FindBySession(ctx, tenantID, sessionID, true)
}

// UnbindSession gỡ binding session
func (s *bindingService) UnbindSession(ctx context.Context, tenantID, sessionID uuid.UUID) error {
	if err := s.sessionBindings.Delete(ctx, tenantID, sessionID); err != nil {
		return mapDBError(err)
	}
	return nil
}

// GetSessionBinding lấy binding của session
func (s *bindingService) GetSessionBinding(ctx context.Context, tenantID, sessionID uuid.UUID) (*models.SessionBinding, error) {
	binding, err := s.sessionBindings.FindBySession(ctx, tenantID, sessionID, true)
	if err != nil {
		return nil, mapDBError(err)
	}
	if binding == nil {
		return nil, apperrors.ErrNotFound
	}
	return binding, nil
}

// ===========================================================================
// Ticket Bindings
// ===========================================================================

// BindTicket bind integration trực tiếp vào ticket
func (s *bindingService) BindTicket(ctx context.Context, tenantID, ticketID uuid.UUID, req *dto.BindTicketRequest) (*models.TicketBinding, error) {
	if err := s.checkIntegration(ctx, tenantID, req.IntegrationID); err != nil {
		return nil, err
	}

	binding := &models.TicketBinding{
		TenantID:      tenantID,
		TicketID:      ticketID,
		IntegrationID: req.IntegrationID,
		Overrides:     req.Overrides,
		IsActive:      true,
	}

	result, created, err := s.ticketBindings.FindOrCreate(ctx, binding)
	if err != nil {
		return nil, mapDBError(err)
	}

	if created {
		s.logger.Info("ticket binding created",
			zap.String("ticket_id", ticketID.String()),
			zap.String("integration_id", req.IntegrationID.String()),
		)
	}
	return result, nil
}

// UpdateTicketBinding cập nhật binding ticket, dùng để deactivate mà không unbind
func (s *bindingService) UpdateTicketBinding(ctx context.Context, tenantID, ticketID, integrationID uuid.UUID, req *dto.UpdateBindingRequest) (*models.TicketBinding, error) {
	bindings, err := s.ticketBindings.FindByTicket(ctx, ticketID, true)
	if err != nil {
		return nil, mapDBError(err)
	}

	for i := range bindings {
		b := &bindings[i]
		if b.TenantID != tenantID || b.IntegrationID != integrationID {
			continue
		}
		if req.IsActive != nil {
			b.IsActive = *req.IsActive
		}
		if req.Overrides != nil {
			b.Overrides = *req.Overrides
		}
		if err := s.ticketBindings.Update(ctx, b); err != nil {
			return nil, mapDBError(err)
		}
		s.logger.Info("ticket binding updated",
			zap.String("ticket_id", ticketID.String()),
			zap.String("integration_id", integrationID.String()),
			zap.Bool("is_active", b.IsActive),
		)
		return b, nil
	}
	return nil, apperrors.ErrNotFound
}

// UnbindTicket gỡ binding ticket
func (s *bindingService) UnbindTicket(ctx context.Context, tenantID, ticketID, integrationID uuid.UUID) error {
	if err := s.checkIntegration(ctx, tenantID, integrationID); err != nil {
		return err
	}
	if err := s.ticketBindings.Delete(ctx, ticketID, integrationID); err != nil {
		return mapDBError(err)
	}
	return nil
}

// ListTicketBindings lấy bindings của ticket
func (s *bindingService) ListTicketBindings(ctx context.Context, tenantID, ticketID uuid.UUID) ([]models.TicketBinding, error) {
	bindings, err := s.ticketBindings.FindByTicket(ctx, ticketID, true)
	if err != nil {
		return nil, mapDBError(err)
	}

	out := bindings[:0]
	for _, b := range bindings {
		if b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	return out, nil
}
