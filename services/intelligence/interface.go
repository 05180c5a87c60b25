package ai

import "context"

// ChatRequest carries a single prompt to the language model.
type ChatRequest struct {
	System      string
	Prompt      string
	JSONMode    bool
	Temperature float32
	MaxTokens   int32
}

// Client is the language-model surface used by the reformulator, the
// airport resolver and response generation.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// Transcriber converts a voice note into text. It returns the transcript
// and the recognized language code.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, string, error)
}

// Synthesizer renders assistant text as audio for voice replies.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}
