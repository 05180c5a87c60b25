package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Messenger is the outbound WhatsApp surface.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendAudio(ctx context.Context, to, mediaURL, caption string) (string, error)
	Send(ctx context.Context, to, content string, modality models.MessageModality, mediaURL string) (string, error)
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error)
	ValidateSignature(requestURL string, params map[string]string, signature string) bool
}

// TwilioMessenger sends WhatsApp messages through the Twilio REST API and
// fetches inbound media with basic-auth credentials.
type TwilioMessenger struct {
	rest       *twilio.RestClient
	validator  twilioClient.RequestValidator
	http       *http.Client
	accountSID string
	authToken  string
	from       string
}

func NewTwilioMessenger(accountSID, authToken, from string) *TwilioMessenger {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioMessenger{
		rest:       rest,
		validator:  twilioClient.NewRequestValidator(authToken),
		http:       &http.Client{Timeout: 30 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		from:       ensureWhatsAppPrefix(from),
	}
}

// ensureWhatsAppPrefix normalizes a number to Twilio's WhatsApp address
// form.
func ensureWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func (m *TwilioMessenger) SendText(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(ensureWhatsAppPrefix(to))
	params.SetFrom(m.from)
	params.SetBody(body)

	msg, err := m.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("sending WhatsApp text to %s: %w", to, err)
	}
	sid := ""
	if msg.Sid != nil {
		sid = *msg.Sid
	}
	zap.L().Info("sent WhatsApp text message", zap.String("to", to), zap.String("sid", sid))
	return sid, nil
}

func (m *TwilioMessenger) SendAudio(_ context.Context, to, mediaURL, caption string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(ensureWhatsAppPrefix(to))
	params.SetFrom(m.from)
	params.SetMediaUrl([]string{mediaURL})
	if caption != "" {
		params.SetBody(caption)
	}

	msg, err := m.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("sending WhatsApp audio to %s: %w", to, err)
	}
	sid := ""
	if msg.Sid != nil {
		sid = *msg.Sid
	}
	zap.L().Info("sent WhatsApp audio message", zap.String("to", to), zap.String("sid", sid))
	return sid, nil
}

// Send routes by modality. Voice replies without an uploaded audio URL fall
// back to text.
func (m *TwilioMessenger) Send(ctx context.Context, to, content string, modality models.MessageModality, mediaURL string) (string, error) {
	if modality == models.ModalityVoice && mediaURL != "" {
		return m.SendAudio(ctx, to, mediaURL, content)
	}
	return m.SendText(ctx, to, content)
}

// DownloadMedia fetches an inbound media attachment from Twilio. Media URLs
// require account credentials and may redirect to a CDN.
func (m *TwilioMessenger) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building media request: %w", err)
	}
	req.SetBasicAuth(m.accountSID, m.authToken)

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading media body: %w", err)
	}
	zap.L().Info("downloaded inbound media", zap.Int("bytes", len(data)))
	return data, nil
}

// ValidateSignature checks the X-Twilio-Signature header on an inbound
// webhook.
func (m *TwilioMessenger) ValidateSignature(requestURL string, params map[string]string, signature string) bool {
	valid := m.validator.Validate(requestURL, params, signature)
	if !valid {
		zap.L().Warn("webhook signature validation failed", zap.String("url", requestURL))
	}
	return valid
}
