// Package webhookout delivers outbound messages to the conversation channel
// gateway over HTTP.
package webhookout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zapdesk/automata/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Messenger posts each message as JSON to the configured gateway endpoint.
// The gateway owns channel-specific delivery; a non-2xx response is reported
// as an error and left to the dispatcher's retry policy.
type Messenger struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewMessenger creates a webhook messenger targeting the given URL.
func NewMessenger(url string, logger *slog.Logger) *Messenger {
	return &Messenger{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.With("module", "webhook_messenger"),
	}
}

type outboundPayload struct {
	CompanyID      string                `json:"company_id"`
	ConversationID string                `json:"conversation_id"`
	Message        models.MessageContent `json:"message"`
}

func (m *Messenger) SendMessage(ctx context.Context, companyID, conversationID string, content models.MessageContent) error {
	body, err := json.Marshal(outboundPayload{
		CompanyID:      companyID,
		ConversationID: conversationID,
		Message:        content,
	})
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build outbound request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver message: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	m.logger.DebugContext(ctx, "Message delivered",
		"conversation_id", conversationID, "status", resp.StatusCode)

	return nil
}
