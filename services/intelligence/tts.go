package ai

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// voiceLocales maps conversation language codes to synthesis locales.
var voiceLocales = map[string]string{
	"en": "en-US",
	"ur": "ur-PK",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"ar": "ar-XA",
}

// GoogleSynthesizer renders voice replies as Ogg Opus so they can be sent
// back over WhatsApp directly.
type GoogleSynthesizer struct {
	credsFile string
	voiceName string
}

// NewGoogleSynthesizer builds a synthesizer. voiceName optionally pins a
// specific voice for English replies; other languages use the locale default.
func NewGoogleSynthesizer(credsFile, voiceName string) *GoogleSynthesizer {
	return &GoogleSynthesizer{credsFile: credsFile, voiceName: voiceName}
}

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	locale, ok := voiceLocales[languageCode]
	if !ok {
		locale = voiceLocales["en"]
	}

	var opts []option.ClientOption
	if s.credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.credsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tts client: %w", err)
	}
	defer client.Close()

	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: locale,
		SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
	}
	if s.voiceName != "" && locale == voiceLocales["en"] {
		voice.Name = s.voiceName
	}

	resp, err := client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_OGG_OPUS,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return resp.AudioContent, nil
}
