package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const inboundTimeout = 90 * time.Second

// VerifyMessagingWebhook answers the WhatsApp subscription handshake by
// echoing hub.challenge.
func (s *Server) VerifyMessagingWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token == "" || token != s.cfg.WhatsApp.VerifyToken {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.String(http.StatusOK, challenge)
}

type inboundPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// HandleInboundMessage acknowledges the delivery immediately and processes
// text messages off the request cycle; the channel retries on slow responses.
func (s *Server) HandleInboundMessage(c *gin.Context) {
	var payload inboundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.From == "" {
					continue
				}
				from, text := msg.From, msg.Text.Body
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), inboundTimeout)
					defer cancel()
					if err := s.orchestrator.HandleInbound(ctx, from, text); err != nil {
						s.log.Warn("inbound message processing failed",
							zap.String("from", from),
							zap.Error(err),
						)
					}
				}()
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
