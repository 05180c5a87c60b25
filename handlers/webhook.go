package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/agent"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"
	"github.com/HummdG/taza-ticket-clean/services/notification"
	"github.com/HummdG/taza-ticket-clean/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ackMessage = "We're on it! 🚀"
	// processTimeout bounds one background turn, including the supplier
	// fan-out and any voice synthesis.
	processTimeout = 3 * time.Minute
)

// WebhookHandler receives Twilio WhatsApp callbacks and hands each message
// to the agent in the background. Twilio expects an immediate empty 200;
// the reply goes out later through the REST API.
type WebhookHandler struct {
	Agent       *agent.Agent
	Messenger   notification.Messenger
	Transcriber ai.Transcriber
}

func NewWebhookHandler(ag *agent.Agent, messenger notification.Messenger, transcriber ai.Transcriber) *WebhookHandler {
	return &WebhookHandler{Agent: ag, Messenger: messenger, Transcriber: transcriber}
}

// Receive handles POST /webhook and POST /webhook/whatsapp.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.TwilioWebhook
	if err := c.ShouldBind(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", err.Error())
		return
	}
	if payload.MessageSid == "" || payload.From == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid webhook payload", "MessageSid and From are required")
		return
	}

	zap.L().Info("received WhatsApp message",
		zap.String("sid", payload.MessageSid),
		zap.String("from", payload.From),
		zap.String("numMedia", payload.NumMedia))

	if _, err := h.Messenger.SendText(c.Request.Context(), payload.From, ackMessage); err != nil {
		zap.L().Warn("failed to send acknowledgment", zap.Error(err))
	}

	go h.process(payload)

	c.String(http.StatusOK, "")
}

// Verify handles GET verification probes. Meta-style subscribe challenges
// are echoed back; anything else is rejected.
func (h *WebhookHandler) Verify(c *gin.Context) {
	if c.Query("hub.mode") == "subscribe" {
		c.String(http.StatusOK, c.Query("hub.challenge"))
		return
	}
	utils.JSONError(c, http.StatusBadRequest, "Invalid verification request", "")
}

func (h *WebhookHandler) process(payload models.TwilioWebhook) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	content, modality, mediaURL, ok := h.extractContent(ctx, payload)
	if !ok {
		// Nothing usable came in; tell the sender directly instead of
		// running a turn on an apology.
		if _, err := h.Messenger.SendText(ctx, payload.From, content); err != nil {
			zap.L().Error("failed to send rejection reply", zap.Error(err))
		}
		return
	}

	res := h.Agent.ProcessTurn(ctx, agent.TurnInput{
		UserID:   payload.From,
		Message:  content,
		Modality: modality,
		MediaURL: mediaURL,
	})

	if _, err := h.Messenger.Send(ctx, payload.From, res.Text, res.Modality, res.MediaURL); err != nil {
		zap.L().Error("failed to send reply",
			zap.String("to", payload.From),
			zap.Error(err))
	}
}

// extractContent turns the webhook payload into agent input. ok=false means
// the content string is a direct reply to the sender, not agent input.
func (h *WebhookHandler) extractContent(ctx context.Context, payload models.TwilioWebhook) (string, models.MessageModality, string, bool) {
	if payload.Body != "" {
		return payload.Body, models.ModalityText, "", true
	}

	if payload.HasMedia() {
		if !strings.Contains(payload.MediaContentType, "audio") {
			zap.L().Warn("unsupported media type", zap.String("contentType", payload.MediaContentType))
			return "Sorry, I can only process text and voice messages.", models.ModalityText, "", false
		}

		audio, err := h.Messenger.DownloadMedia(ctx, payload.MediaURL0)
		if err != nil {
			zap.L().Error("failed to download voice note", zap.Error(err))
			return "Sorry, I couldn't understand the voice message. Please try again or send a text message.",
				models.ModalityText, "", false
		}

		transcript, language, err := h.Transcriber.Transcribe(ctx, audio)
		if err != nil {
			zap.L().Error("failed to transcribe voice note", zap.Error(err))
			return "Sorry, I couldn't understand the voice message. Please try again or send a text message.",
				models.ModalityText, "", false
		}

		zap.L().Info("transcribed voice note",
			zap.String("language", language),
			zap.Int("chars", len(transcript)))
		return transcript, models.ModalityVoice, payload.MediaURL0, true
	}

	return "I didn't receive any message content. Please try again.", models.ModalityText, "", false
}
