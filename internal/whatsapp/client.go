// Package whatsapp connects the WhatsApp Cloud API to the inbound pipeline.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cotizador_backend/platform/config"
	"cotizador_backend/platform/logger"
)

const defaultAPIURL = "https://graph.facebook.com/v18.0"

// Client sends text messages through the Cloud API. A nil *Client is a
// valid no-op sender.
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// NewClient returns nil when the token or phone number id is missing.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppToken() == "" || cfg.GetWhatsAppPhoneNumberID() == "" {
		return nil
	}

	baseURL := strings.TrimRight(cfg.GetWhatsAppAPIURL(), "/")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	return &Client{
		baseURL:       baseURL,
		token:         cfg.GetWhatsAppToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// SendMessage delivers a text message to the given WhatsApp id.
func (c *Client) SendMessage(ctx context.Context, to string, message string) error {
	if c == nil {
		return nil
	}

	body, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: message},
	})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp sent", "to", to)
	return nil
}
