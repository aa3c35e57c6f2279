package automation

import (
	"context"

	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Scope Resolver
// Từ một ticket, tính ra tập integrations áp dụng (active, dedup)
// Ba scope độc lập: ticket binding > queue binding > session binding
// Toàn bộ rule ưu tiên nằm ở đây, một chỗ duy nhất
// ===========================================================================

// Specificity độ ưu tiên của scope khi cùng một integration
// xuất hiện qua nhiều binding (số lớn = ưu tiên cao hơn)
type Specificity int

const (
	// SpecificitySession binding ở mức connection/session (thấp nhất)
	SpecificitySession Specificity = iota + 1

	// SpecificityQueue binding ở mức queue
	SpecificityQueue

	// SpecificityTicket binding trực tiếp trên ticket (cao nhất)
	SpecificityTicket
)

// String trả về tên scope
func (s Specificity) String() string {
	switch s {
	case SpecificityTicket:
		return "ticket"
	case SpecificityQueue:
		return "queue"
	case SpecificitySession:
		return "session"
	default:
		return "unknown"
	}
}

// ResolvedIntegration một integration áp dụng cho ticket,
// kèm config bot hiệu lực sau khi merge overrides
type ResolvedIntegration struct {
	// Integration định nghĩa gốc
	Integration models.Integration `json:"integration"`

	// Specificity scope mà integration được resolve qua
	Specificity Specificity `json:"specificity"`

	// Bot config bot hiệu lực: overrides của binding thắng,
	// trường chưa set fallback về giá trị của base integration
	Bot models.BotSettings `json:"bot"`
}

// Resolver interface resolve integrations cho một ticket
type Resolver interface {
	// Resolve trả về tập integrations áp dụng, đã dedup theo integration id
	// Thứ tự phần tử không được đảm bảo, downstream coi như một set
	Resolve(ctx context.Context, ticket *models.Ticket) ([]ResolvedIntegration, error)
}

// ===========================================================================
// Resolver Implementation
// ===========================================================================

// resolver triển khai Resolver trên ba binding repositories
type resolver struct {
	ticketBindings  repositories.TicketBindingRepository
	queueBindings   repositories.QueueBindingRepository
	sessionBindings repositories.SessionBindingRepository
	logger          *zap.Logger
}

// NewResolver tạo instance mới của Resolver
func NewResolver(
	ticketBindings repositories.TicketBindingRepository,
	queueBindings repositories.QueueBindingRepository,
	sessionBindings repositories.SessionBindingRepository,
	logger *zap.Logger,
) Resolver {
	return &resolver{
		ticketBindings:  ticketBindings,
		queueBindings:   queueBindings,
		sessionBindings: sessionBindings,
		logger:          logger,
	}
}

// candidate một integration tìm được qua một binding, trước khi merge
type candidate struct {
	integration models.Integration
	specificity Specificity
	overrides   models.BotOverrides
}

// Resolve thực hiện thuật toán resolve 5 bước
func (r *resolver) Resolve(ctx context.Context, ticket *models.Ticket) ([]ResolvedIntegration, error) {
	var candidates []candidate

	// 1. Ticket bindings, độ ưu tiên cao nhất
	ticketBindings, err := r.ticketBindings.FindByTicket(ctx, ticket.ID, false)
	if err != nil {
		return nil, err
	}
	for _, b := range ticketBindings {
		candidates = append(candidates, candidate{
			integration: b.Integration,
			specificity: SpecificityTicket,
			overrides:   b.Overrides,
		})
	}

	// 2. Queue bindings, chỉ khi ticket đã có queue
	if ticket.QueueID != nil {
		queueBindings, err := r.queueBindings.FindByQueue(ctx, *ticket.QueueID, false)
		if err != nil {
			return nil, err
		}
		for _, b := range queueBindings {
			candidates = append(candidates, candidate{
				integration: b.Integration,
				specificity: SpecificityQueue,
				overrides:   b.Overrides,
			})
		}
	}

	// 3. Session binding, gate theo triggerOnlyWithoutQueue
	sessionBinding, err := r.sessionBindings.FindBySession(ctx, ticket.TenantID, ticket.SessionID, false)
	if err != nil {
		return nil, err
	}
	if sessionBinding != nil && sessionBinding.AppliesTo(ticket) {
		candidates = append(candidates, candidate{
			integration: sessionBinding.Integration,
			specificity: SpecificitySession,
			overrides:   sessionBinding.Overrides,
		})
	}

	// 4. Merge theo integration id, giữ occurrence có specificity cao nhất
	merged := make(map[uuid.UUID]candidate)
	for _, c := range candidates {
		existing, ok := merged[c.integration.ID]
		if !ok || c.specificity > existing.specificity {
			merged[c.integration.ID] = c
		}
	}

	// 5. Drop integrations inactive, active flag của binding và của
	// integration là hai gate độc lập, cả hai đều phải true
	resolved := make([]ResolvedIntegration, 0, len(merged))
	for _, c := range merged {
		if c.integration.ID == uuid.Nil || !c.integration.IsActive {
			continue
		}
		resolved = append(resolved, ResolvedIntegration{
			Integration: c.integration,
			Specificity: c.specificity,
			Bot:         c.overrides.ApplyTo(c.integration.Bot),
		})
	}

	r.logger.Debug("integrations resolved",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("count", len(resolved)),
	)

	return resolved, nil
}
