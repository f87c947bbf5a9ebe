package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/polisbot/polisbot/internal/config"
	"go.uber.org/zap"
)

// WhatsAppProvider sends messages through the WhatsApp Cloud API.
type WhatsAppProvider struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	client        *http.Client
	log           *zap.Logger
}

func NewWhatsApp(cfg config.Config, log *zap.Logger) *WhatsAppProvider {
	return &WhatsAppProvider{
		baseURL:       strings.TrimRight(cfg.WhatsApp.APIBaseURL, "/"),
		accessToken:   cfg.WhatsApp.AccessToken,
		phoneNumberID: cfg.WhatsApp.PhoneNumberID,
		client:        &http.Client{Timeout: 15 * time.Second},
		log:           log.Named("messaging.whatsapp"),
	}
}

type whatsappText struct {
	Body string `json:"body"`
}

type whatsappDocument struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type whatsappMessage struct {
	MessagingProduct string            `json:"messaging_product"`
	To               string            `json:"to"`
	Type             string            `json:"type"`
	Text             *whatsappText     `json:"text,omitempty"`
	Document         *whatsappDocument `json:"document,omitempty"`
}

func (p *WhatsAppProvider) SendText(ctx context.Context, to, body string) error {
	return p.send(ctx, whatsappMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &whatsappText{Body: body},
	})
}

func (p *WhatsAppProvider) SendDocument(ctx context.Context, to, documentURL, filename, caption string) error {
	return p.send(ctx, whatsappMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "document",
		Document: &whatsappDocument{
			Link:     documentURL,
			Filename: filename,
			Caption:  caption,
		},
	})
}

func (p *WhatsAppProvider) send(ctx context.Context, msg whatsappMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", p.baseURL, p.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.log.Warn("whatsapp send failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("whatsapp send: status %d", resp.StatusCode)
	}
	return nil
}
