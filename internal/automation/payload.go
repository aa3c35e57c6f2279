package automation

import (
	"time"

	"whatsdesk/internal/errors"
	"whatsdesk/internal/models"
	"whatsdesk/internal/repositories"
)

// ===========================================================================
// Payload Builders
// Mỗi integration type có envelope riêng, xem bảng trong dispatcher
// ===========================================================================

// envelope body + headers cho một outbound call
type envelope struct {
	// body sẽ được marshal thành JSON
	body map[string]interface{}

	// headers các header bổ sung (ngoài Content-Type)
	headers map[string]string

	// url endpoint để gọi
	url string
}

// baseData dữ liệu chung về ticket cho mọi envelope
func baseData(ticket *models.Ticket, session *repositories.WhatsAppSession, extras Extras) map[string]interface{} {
	data := map[string]interface{}{
		"ticket_id": ticket.ID.String(),
		"tenant_id": ticket.TenantID.String(),
		"status":    ticket.Status,
		"contact": map[string]interface{}{
			"name":   ticket.Contact.Name,
			"number": ticket.Contact.Number,
		},
	}
	if ticket.QueueID != nil {
		data["queue_id"] = ticket.QueueID.String()
	}
	if session != nil {
		data["session"] = map[string]interface{}{
			"whatsapp_id": session.WhatsAppID,
			"status":      session.Status,
		}
	}
	for k, v := range extras {
		data[k] = v
	}
	return data
}

// buildEnvelope build body, headers và URL theo integration type
func buildEnvelope(event Event, now time.Time, ri ResolvedIntegration, ticket *models.Ticket, session *repositories.WhatsAppSession, extras Extras) (*envelope, error) {
	cfg := ri.Integration.Config
	timestamp := now.UTC().Format(time.RFC3339)

	switch ri.Integration.Type {
	case models.TypeWebhook:
		// {event, timestamp, integration:{id,name,type}, data}
		// merge thêm headers từ config
		headers := make(map[string]string, len(cfg.Headers))
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		return &envelope{
			url: cfg.URL,
			body: map[string]interface{}{
				"event":     string(event),
				"timestamp": timestamp,
				"integration": map[string]interface{}{
					"id":   ri.Integration.ID.String(),
					"name": ri.Integration.Name,
					"type": string(ri.Integration.Type),
				},
				"data": baseData(ticket, session, extras),
			},
			headers: headers,
		}, nil

	case models.TypeN8N:
		// event/timestamp flatten cùng cấp với data fields
		body := baseData(ticket, session, extras)
		body["event"] = string(event)
		body["timestamp"] = timestamp

		headers := map[string]string{}
		if cfg.AuthToken != "" {
			headers["Authorization"] = "Bearer " + cfg.AuthToken
		}
		return &envelope{url: cfg.URL, body: body, headers: headers}, nil

	case models.TypeTypebot:
		// {event, sessionId, contact, message, variables, botSlug}
		sessionID := ""
		if ticket.BotSessionID != nil {
			sessionID = *ticket.BotSessionID
		}
		var message interface{}
		variables := map[string]interface{}{}
		for k, v := range extras {
			if k == "message" {
				message = v
				continue
			}
			variables[k] = v
		}
		body := map[string]interface{}{
			"event":     string(event),
			"sessionId": sessionID,
			"contact": map[string]interface{}{
				"name":   ticket.Contact.Name,
				"number": ticket.Contact.Number,
			},
			"message":   message,
			"variables": variables,
			"botSlug":   ri.Bot.BotSlug,
		}

		headers := map[string]string{}
		if cfg.APIKey != "" {
			headers["Authorization"] = "Bearer " + cfg.APIKey
		}

		// typebot gọi vào bot URL, fallback về config URL
		url := ri.Bot.BotURL
		if url == "" {
			url = cfg.URL
		}
		return &envelope{url: url, body: body, headers: headers}, nil

	case models.TypeAPI, models.TypeCustom:
		// cùng isolation contract với webhook, auth theo config
		headers := make(map[string]string, len(cfg.Headers)+1)
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		if cfg.AuthToken != "" {
			headers["Authorization"] = "Bearer " + cfg.AuthToken
		}
		return &envelope{
			url: cfg.URL,
			body: map[string]interface{}{
				"event":     string(event),
				"timestamp": timestamp,
				"integration": map[string]interface{}{
					"id":   ri.Integration.ID.String(),
					"name": ri.Integration.Name,
					"type": string(ri.Integration.Type),
				},
				"data": baseData(ticket, session, extras),
			},
			headers: headers,
		}, nil

	default:
		return nil, errors.ErrUnsupportedType
	}
}

// defaultTimeout timeout mặc định theo integration type
// Config.TimeoutSec > 0 sẽ override giá trị này
func defaultTimeout(t models.IntegrationType) time.Duration {
	switch t {
	case models.TypeN8N:
		return 15 * time.Second
	default:
		return 10 * time.Second
	}
}
