package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/HummdG/taza-ticket-clean/models"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"

	"go.uber.org/zap"
)

const (
	// summarizeAfter is the message count past which older history is
	// collapsed into a rolling summary.
	summarizeAfter = 20
	// keepRecent messages always stay verbatim on the record.
	keepRecent = 4

	summaryFallback = "Previous conversation context available."
)

// Summarizer compacts long conversation histories so the record and the
// extractor prompt stay bounded.
type Summarizer struct {
	llm ai.Client
}

func NewSummarizer(llm ai.Client) *Summarizer {
	return &Summarizer{llm: llm}
}

// Compact replaces all but the most recent messages with a model-written
// summary once the history exceeds summarizeAfter entries. A failed model
// call degrades to a placeholder summary rather than blocking the turn.
func (s *Summarizer) Compact(ctx context.Context, conv *models.Conversation) {
	if len(conv.Messages) <= summarizeAfter {
		return
	}

	older := conv.Messages[:len(conv.Messages)-keepRecent]
	var transcript strings.Builder
	if conv.Summary != "" {
		transcript.WriteString("Earlier summary: " + conv.Summary + "\n")
	}
	for _, msg := range older {
		fmt.Fprintf(&transcript, "%s: %s\n", msg.Role, msg.Content)
	}

	prompt := "Summarize this flight booking conversation concisely. Preserve travel " +
		"preferences, searched routes, dates discussed and any decisions made:\n\n" +
		transcript.String()

	summary, err := s.llm.Chat(ctx, ai.ChatRequest{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   200,
	})
	summary = strings.TrimSpace(summary)
	if err != nil || summary == "" {
		zap.L().Warn("conversation summarization failed", zap.Error(err))
		summary = summaryFallback
	}

	recent := make([]models.Message, keepRecent)
	copy(recent, conv.Messages[len(conv.Messages)-keepRecent:])
	conv.Summary = summary
	conv.Messages = recent

	zap.L().Info("conversation history compacted",
		zap.String("userId", conv.UserID),
		zap.Int("summarized", len(older)),
		zap.Int("kept", keepRecent))
}
