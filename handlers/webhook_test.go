package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeMessenger struct {
	media       []byte
	downloadErr error
	sentTexts   []string
}

func (f *fakeMessenger) SendText(_ context.Context, _, body string) (string, error) {
	f.sentTexts = append(f.sentTexts, body)
	return "SM123", nil
}

func (f *fakeMessenger) SendAudio(context.Context, string, string, string) (string, error) {
	return "SM124", nil
}

func (f *fakeMessenger) Send(ctx context.Context, to, content string, modality models.MessageModality, mediaURL string) (string, error) {
	return f.SendText(ctx, to, content)
}

func (f *fakeMessenger) DownloadMedia(context.Context, string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.media, nil
}

func (f *fakeMessenger) ValidateSignature(string, map[string]string, string) bool { return true }

type fakeTranscriber struct {
	transcript string
	language   string
	err        error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte) (string, string, error) {
	return f.transcript, f.language, f.err
}

func TestExtractContentTextMessage(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})

	content, modality, mediaURL, ok := h.extractContent(context.Background(), models.TwilioWebhook{
		Body: "london to dubai tomorrow",
	})

	assert.True(t, ok)
	assert.Equal(t, "london to dubai tomorrow", content)
	assert.Equal(t, models.ModalityText, modality)
	assert.Empty(t, mediaURL)
}

func TestExtractContentVoiceNote(t *testing.T) {
	messenger := &fakeMessenger{media: []byte("opus")}
	transcriber := &fakeTranscriber{transcript: "flight to karachi next friday", language: "en"}
	h := NewWebhookHandler(nil, messenger, transcriber)

	content, modality, mediaURL, ok := h.extractContent(context.Background(), models.TwilioWebhook{
		MediaURL0:        "https://api.twilio.example/media/SM1/0",
		MediaContentType: "audio/ogg",
		NumMedia:         "1",
	})

	assert.True(t, ok)
	assert.Equal(t, "flight to karachi next friday", content)
	assert.Equal(t, models.ModalityVoice, modality)
	assert.Equal(t, "https://api.twilio.example/media/SM1/0", mediaURL)
}

func TestExtractContentTranscriptionFailure(t *testing.T) {
	messenger := &fakeMessenger{media: []byte("opus")}
	transcriber := &fakeTranscriber{err: errors.New("no speech recognized")}
	h := NewWebhookHandler(nil, messenger, transcriber)

	content, modality, _, ok := h.extractContent(context.Background(), models.TwilioWebhook{
		MediaURL0:        "https://api.twilio.example/media/SM1/0",
		MediaContentType: "audio/ogg",
		NumMedia:         "1",
	})

	assert.False(t, ok)
	assert.Contains(t, content, "couldn't understand the voice message")
	assert.Equal(t, models.ModalityText, modality)
}

func TestExtractContentUnsupportedMedia(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})

	content, _, _, ok := h.extractContent(context.Background(), models.TwilioWebhook{
		MediaURL0:        "https://api.twilio.example/media/SM1/0",
		MediaContentType: "image/jpeg",
		NumMedia:         "1",
	})

	assert.False(t, ok)
	assert.Contains(t, content, "only process text and voice messages")
}

func TestExtractContentEmptyPayload(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})

	content, _, _, ok := h.extractContent(context.Background(), models.TwilioWebhook{})

	assert.False(t, ok)
	assert.Contains(t, content, "didn't receive any message content")
}

func TestReceiveRejectsIncompletePayload(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})
	router := gin.New()
	router.POST("/webhook", h.Receive)

	form := url.Values{"Body": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEchoesSubscribeChallenge(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})
	router := gin.New()
	router.GET("/webhook", h.Verify)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}

func TestVerifyRejectsOtherRequests(t *testing.T) {
	h := NewWebhookHandler(nil, &fakeMessenger{}, &fakeTranscriber{})
	router := gin.New()
	router.GET("/webhook", h.Verify)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
