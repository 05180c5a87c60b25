package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const chatMaxRetries = 3

type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(apiKey, modelName string) *GeminiClient {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		panic(fmt.Sprintf("failed to create Gemini client: %v", err))
	}
	if modelName == "" {
		modelName = "models/gemini-1.5-pro"
	}
	return &GeminiClient{client: client, modelName: modelName}
}

func (g *GeminiClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	var out string
	op := func() error {
		resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
		if err != nil {
			return fmt.Errorf("gemini generate error: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return fmt.Errorf("gemini returned no candidates")
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if textPart, ok := part.(genai.Text); ok {
				sb.WriteString(string(textPart))
			}
		}
		out = sb.String()
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), chatMaxRetries), ctx)
	if err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		zap.L().Warn("gemini call failed, retrying", zap.Error(err), zap.Duration("next", next))
	}); err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DetectLanguage returns an ISO 639-1 code for the message, defaulting to
// English when the model answer is unusable.
func (g *GeminiClient) DetectLanguage(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Identify the language of this message. Reply with only the two-letter ISO 639-1 code (for example "en", "ur", "es").

Message: %s`, text)

	resp, err := g.Chat(ctx, ChatRequest{Prompt: prompt, Temperature: 0, MaxTokens: 8})
	if err != nil {
		return "", err
	}
	code := strings.ToLower(strings.Trim(resp, " \t\n\"'.`"))
	if len(code) != 2 {
		return "en", nil
	}
	return code, nil
}
