package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Dispatch Engine
// Fan-out concurrent qua các integrations đã resolve
// Một backend chậm/lỗi không được chặn các backend khác và không được
// chặn workflow của ticket, mọi lỗi đều nằm lại trong DispatchReport
// ===========================================================================

// DispatchStatus kết quả của một outbound call
type DispatchStatus string

const (
	// StatusOK call thành công (2xx)
	StatusOK DispatchStatus = "ok"

	// StatusFailed network error, timeout, hoặc non-2xx
	StatusFailed DispatchStatus = "failed"

	// StatusUnsupported integration type không được hỗ trợ
	StatusUnsupported DispatchStatus = "unsupported"
)

// DispatchResult kết quả gọi một integration
type DispatchResult struct {
	// IntegrationID ID integration được gọi
	IntegrationID uuid.UUID `json:"integration_id"`

	// Name tên integration
	Name string `json:"name"`

	// Type loại integration
	Type models.IntegrationType `json:"type"`

	// Specificity scope mà integration được resolve qua
	Specificity string `json:"specificity"`

	// Status ok / failed / unsupported
	Status DispatchStatus `json:"status"`

	// HTTPStatus status code từ backend (0 nếu không gọi được)
	HTTPStatus int `json:"http_status,omitempty"`

	// Duration thời gian call
	Duration time.Duration `json:"duration"`

	// Error mô tả lỗi (nếu có)
	Error string `json:"error,omitempty"`

	// BotUnknownInput remote bot báo không parse được input (chỉ typebot)
	BotUnknownInput bool `json:"bot_unknown_input,omitempty"`
}

// OK kiểm tra call có thành công không
func (r *DispatchResult) OK() bool { return r.Status == StatusOK }

// DispatchReport báo cáo đầy đủ của một lần dispatch
type DispatchReport struct {
	// Event sự kiện đã dispatch
	Event Event `json:"event"`

	// TicketID ID ticket
	TicketID uuid.UUID `json:"ticket_id"`

	// StartedAt thời điểm bắt đầu
	StartedAt time.Time `json:"started_at"`

	// Results kết quả từng integration
	Results []DispatchResult `json:"results"`
}

// Succeeded số call thành công
func (r *DispatchReport) Succeeded() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].OK() {
			n++
		}
	}
	return n
}

// Failed số call thất bại (kể cả unsupported)
func (r *DispatchReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Dispatcher interface cho dispatch engine
type Dispatcher interface {
	// Dispatch resolve integrations của ticket rồi fan-out concurrent
	// Không bao giờ trả error vì lỗi backend, tất cả nằm trong report
	Dispatch(ctx context.Context, event Event, ticket *models.Ticket, extras Extras) (*DispatchReport, error)

	// DispatchAsync fire-and-forget: gọi SAU khi ticket đã commit,
	// không bao giờ chặn transaction của caller
	DispatchAsync(event Event, ticket *models.Ticket, extras Extras)

	// Call gọi đúng một integration (dùng cho test connection và bot forward)
	Call(ctx context.Context, event Event, ri ResolvedIntegration, ticket *models.Ticket, extras Extras) DispatchResult
}

// ===========================================================================
// Dispatcher Implementation
// ===========================================================================

// DispatcherOptions cấu hình cho dispatcher
type DispatcherOptions struct {
	// MaxConcurrent số call đồng thời tối đa mỗi event (bounded fan-out)
	MaxConcurrent int

	// AsyncTimeout timeout tổng cho một dispatch async
	AsyncTimeout time.Duration
}

// SetDefaults thiết lập giá trị mặc định
func (o *DispatcherOptions) SetDefaults() {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 8
	}
	if o.AsyncTimeout <= 0 {
		o.AsyncTimeout = 60 * time.Second
	}
}

// dispatcher triển khai Dispatcher
type dispatcher struct {
	resolver Resolver
	sessions repositories.SessionStore
	client   *http.Client
	opts     DispatcherOptions
	logger   *zap.Logger
}

// NewDispatcher tạo instance mới của Dispatcher
// client được inject để test có thể thay bằng httptest client
func NewDispatcher(
	resolver Resolver,
	sessions repositories.SessionStore,
	client *http.Client,
	opts DispatcherOptions,
	logger *zap.Logger,
) Dispatcher {
	opts.SetDefaults()
	if client == nil {
		client = &http.Client{}
	}
	return &dispatcher{
		resolver: resolver,
		sessions: sessions,
		client:   client,
		opts:     opts,
		logger:   logger,
	}
}

// Dispatch fan-out concurrent qua các integrations của ticket
func (d *dispatcher) Dispatch(ctx context.Context, event Event, ticket *models.Ticket, extras Extras) (*DispatchReport, error) {
	report := &DispatchReport{
		Event:     event,
		TicketID:  ticket.ID,
		StartedAt: time.Now(),
	}

	resolved, err := d.resolver.Resolve(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return report, nil
	}

	// Session giống nhau cho mọi integration của ticket, lookup một lần
	session := d.lookupSession(ctx, ticket.SessionID)

	// Bounded fan-out: semaphore giới hạn số call đồng thời
	// Mỗi goroutine ghi vào slot riêng nên không cần mutex
	report.Results = make([]DispatchResult, len(resolved))
	sem := make(chan struct{}, d.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i, ri := range resolved {
		wg.Add(1)
		go func(i int, ri ResolvedIntegration) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			report.Results[i] = d.call(ctx, event, ri, ticket, session, extras)
		}(i, ri)
	}
	wg.Wait()

	d.logger.Info("dispatch completed",
		zap.String("event", string(event)),
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("total", len(report.Results)),
		zap.Int("failed", report.Failed()),
	)

	return report, nil
}

// DispatchAsync dispatch trong goroutine riêng với context riêng
// Dùng sau khi ticket state change đã commit, caller không chờ
func (d *dispatcher) DispatchAsync(event Event, ticket *models.Ticket, extras Extras) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.AsyncTimeout)
		defer cancel()

		if _, err := d.Dispatch(ctx, event, ticket, extras); err != nil {
			d.logger.Warn("async dispatch failed",
				zap.String("event", string(event)),
				zap.String("ticket_id", ticket.ID.String()),
				zap.Error(err),
			)
		}
	}()
}

// lookupSession lấy session để enrich payload, lỗi lookup không chặn dispatch
func (d *dispatcher) lookupSession(ctx context.Context, sessionID uuid.UUID) *repositories.WhatsAppSession {
	if d.sessions == nil {
		return nil
	}
	session, err := d.sessions.FindByID(ctx, sessionID)
	if err != nil {
		d.logger.Warn("session lookup failed",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
		return nil
	}
	return session
}

// Call gọi đúng một integration, mọi lỗi được gói vào DispatchResult
func (d *dispatcher) Call(ctx context.Context, event Event, ri ResolvedIntegration, ticket *models.Ticket, extras Extras) DispatchResult {
	return d.call(ctx, event, ri, ticket, d.lookupSession(ctx, ticket.SessionID), extras)
}

// call như Call nhưng nhận session đã lookup sẵn để fan-out không lặp query
func (d *dispatcher) call(ctx context.Context, event Event, ri ResolvedIntegration, ticket *models.Ticket, session *repositories.WhatsAppSession, extras Extras) DispatchResult {
	result := DispatchResult{
		IntegrationID: ri.Integration.ID,
		Name:          ri.Integration.Name,
		Type:          ri.Integration.Type,
		Specificity:   ri.Specificity.String(),
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	env, err := buildEnvelope(event, start, ri, ticket, session, extras)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnsupportedType) {
			result.Status = StatusUnsupported
			result.Error = fmt.Sprintf("type %q is not supported", ri.Integration.Type)
			d.logger.Warn("unsupported integration type",
				zap.String("integration_id", ri.Integration.ID.String()),
				zap.String("type", string(ri.Integration.Type)),
			)
			return result
		}
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	// Timeout riêng từng call: config override, fallback default theo type
	timeout := defaultTimeout(ri.Integration.Type)
	if ri.Integration.Config.TimeoutSec > 0 {
		timeout = time.Duration(ri.Integration.Config.TimeoutSec) * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, httpStatus, botUnknown, err := d.send(callCtx, env, ri.Integration.Type)
	result.Status = status
	result.HTTPStatus = httpStatus
	result.BotUnknownInput = botUnknown
	if err != nil {
		result.Error = err.Error()
		d.logger.Warn("integration call failed",
			zap.String("integration_id", ri.Integration.ID.String()),
			zap.String("name", ri.Integration.Name),
			zap.String("type", string(ri.Integration.Type)),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}

	return result
}

// typebotResponse phần response của typebot mà state machine quan tâm
type typebotResponse struct {
	Status string `json:"status"`
}

// send thực hiện HTTP POST và phân loại kết quả
func (d *dispatcher) send(ctx context.Context, env *envelope, integrationType models.IntegrationType) (DispatchStatus, int, bool, error) {
	body, err := json.Marshal(env.body)
	if err != nil {
		return StatusFailed, 0, false, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, env.url, bytes.NewReader(body))
	if err != nil {
		return StatusFailed, 0, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range env.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return StatusFailed, 0, false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	// Giới hạn đọc body để backend trả rác không ăn hết memory
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusFailed, resp.StatusCode, false, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	// Typebot có thể báo unknown input trong response body
	botUnknown := false
	if integrationType == models.TypeTypebot && len(respBody) > 0 {
		var tr typebotResponse
		if err := json.Unmarshal(respBody, &tr); err == nil && tr.Status == "unknown" {
			botUnknown = true
		}
	}

	return StatusOK, resp.StatusCode, botUnknown, nil
}
