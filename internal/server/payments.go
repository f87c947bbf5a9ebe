package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/polisbot/polisbot/internal/payment/domain"
)

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.paymentSvc.IngestWebhook(c.Request.Context(), paymentdomain.WebhookRequest{
		Payload:   payload,
		Signature: c.GetHeader("x-signature"),
		RequestID: c.GetHeader("x-request-id"),
		DataID:    c.Query("data.id"),
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) ||
			errors.Is(err, paymentdomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
