package ai

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

// WhatsApp voice notes arrive as Ogg Opus from the media API.
const voiceNoteSampleRate = 16000

// GoogleTranscriber runs WhatsApp voice notes through Google speech
// recognition with multi-language detection.
type GoogleTranscriber struct {
	credsFile string
	languages []string
}

func NewGoogleTranscriber(credsFile string) *GoogleTranscriber {
	return &GoogleTranscriber{
		credsFile: credsFile,
		languages: []string{"ur-PK", "es-ES", "fr-FR", "de-DE", "ar-SA"},
	}
}

func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, string, error) {
	var opts []option.ClientOption
	if t.credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(t.credsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return "", "", fmt.Errorf("failed to initialize speech client: %w", err)
	}
	defer client.Close()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                 speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz:          voiceNoteSampleRate,
			LanguageCode:             "en-US",
			AlternativeLanguageCodes: t.languages,
			AudioChannelCount:        1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := client.Recognize(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	lang := "en"
	for _, result := range resp.Results {
		if result.LanguageCode != "" {
			lang = shortLanguageCode(result.LanguageCode)
		}
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", "", fmt.Errorf("no speech recognized")
	}
	return text, lang, nil
}

// shortLanguageCode reduces "en-US" to "en".
func shortLanguageCode(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return strings.ToLower(code[:i])
	}
	return strings.ToLower(code)
}
