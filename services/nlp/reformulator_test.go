package nlp

import (
	"context"
	"errors"
	"testing"

	"github.com/HummdG/taza-ticket-clean/models"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, req ai.ChatRequest) (string, error) {
	f.lastPrompt = req.Prompt
	return f.reply, f.err
}

func (f *fakeLLM) DetectLanguage(_ context.Context, _ string) (string, error) {
	return "en", nil
}

func TestReformulateExtraction(t *testing.T) {
	llm := &fakeLLM{reply: `{
		"from_city_name": "London",
		"to_city_name": "Dubai",
		"from_iata_codes": ["lhr", "LGW", "TOOLONG"],
		"to_iata_codes": ["DXB"],
		"date": "2026-09-12",
		"trip_type": "one_way",
		"intent": "search_specific_date",
		"needs_clarification": false,
		"confidence_level": "high"
	}`}
	r := NewReformulator(llm)

	out, err := r.Reformulate(context.Background(), models.ReformulatorInput{
		UserMessage: "flights from London to Dubai on 12th September",
	})
	require.NoError(t, err)

	assert.Equal(t, "London", out.FromCityName)
	assert.Equal(t, []string{"LHR", "LGW"}, out.FromIATACodes)
	assert.Equal(t, "search_specific_date", out.Intent)
	assert.False(t, out.NeedsClarification)
}

func TestReformulateInheritsFromSlots(t *testing.T) {
	llm := &fakeLLM{reply: `{
		"date": "2026-09-12",
		"intent": "modify_dates",
		"needs_clarification": false
	}`}
	r := NewReformulator(llm)

	out, err := r.Reformulate(context.Background(), models.ReformulatorInput{
		UserMessage: "make it the 12th instead",
		CurrentSlots: models.Slots{
			FromCity:      "london",
			ToCity:        "dubai",
			FromIATACodes: []string{"LHR"},
			ToIATACodes:   []string{"DXB"},
			Passengers:    2,
			TripType:      models.TripRoundTrip,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "london", out.FromCityName)
	assert.Equal(t, []string{"LHR"}, out.FromIATACodes)
	assert.Equal(t, "dubai", out.ToCityName)
	assert.Equal(t, 2, out.Passengers)
	assert.Equal(t, models.TripRoundTrip, out.TripType)
	assert.False(t, out.NeedsClarification)
}

func TestReformulateForcesClarificationWhenAllCriticalMissing(t *testing.T) {
	llm := &fakeLLM{reply: `{"intent": "greeting", "needs_clarification": false}`}
	r := NewReformulator(llm)

	out, err := r.Reformulate(context.Background(), models.ReformulatorInput{UserMessage: "hello"})
	require.NoError(t, err)

	assert.True(t, out.NeedsClarification)
	assert.Contains(t, out.ClarificationQuestion, "origin")
	assert.Contains(t, out.ClarificationQuestion, "destination")
	assert.Contains(t, out.ClarificationQuestion, "travel date")
}

func TestReformulateDefaultsTripTypeForSpecificDate(t *testing.T) {
	llm := &fakeLLM{reply: `{
		"from_city_name": "Karachi",
		"to_city_name": "Dubai",
		"date": "2026-09-12",
		"intent": "search_specific_date",
		"needs_clarification": false
	}`}
	r := NewReformulator(llm)

	out, err := r.Reformulate(context.Background(), models.ReformulatorInput{UserMessage: "karachi to dubai 12 sep"})
	require.NoError(t, err)
	assert.Equal(t, models.TripOneWay, out.TripType)
}

func TestReformulateFallsBackOnModelFailure(t *testing.T) {
	for _, llm := range []*fakeLLM{
		{err: errors.New("model unavailable")},
		{reply: "this is not json"},
	} {
		r := NewReformulator(llm)
		out, err := r.Reformulate(context.Background(), models.ReformulatorInput{UserMessage: "anything"})
		require.NoError(t, err)
		assert.Equal(t, models.IntentClarificationNeeded, out.Intent)
		assert.True(t, out.NeedsClarification)
		assert.Equal(t, "low", out.ConfidenceLevel)
	}
}

func TestPromptCarriesContext(t *testing.T) {
	llm := &fakeLLM{reply: `{"needs_clarification": true, "intent": "clarification_needed"}`}
	r := NewReformulator(llm)

	_, err := r.Reformulate(context.Background(), models.ReformulatorInput{
		UserMessage: "cheapest return in september",
		History: []models.Message{
			{Role: models.RoleUser, Content: "hi"},
			{Role: models.RoleAssistant, Content: "Hello! Where would you like to fly?"},
		},
		CurrentSlots: models.Slots{FromCity: "london"},
		Summary:      "User previously booked flights to Karachi.",
	})
	require.NoError(t, err)

	assert.Contains(t, llm.lastPrompt, "User: hi")
	assert.Contains(t, llm.lastPrompt, "Origin: london")
	assert.Contains(t, llm.lastPrompt, "previously booked flights to Karachi")
	assert.Contains(t, llm.lastPrompt, "Price sensitivity: budget")
	assert.Contains(t, llm.lastPrompt, "Trip type: round_trip")
	assert.Contains(t, llm.lastPrompt, "Date type: Monthly search")
}

func TestConfidenceScoring(t *testing.T) {
	full := &models.ReformulatorOutput{
		FromCityName:  "London",
		ToCityName:    "Dubai",
		Date:          "2026-09-12",
		Passengers:    2,
		TripType:      models.TripOneWay,
		FromIATACodes: []string{"LHR"},
		ToIATACodes:   []string{"DXB"},
		Intent:        "search_specific_date",
	}
	assert.InDelta(t, 1.0, Confidence(full), 0.001)

	empty := &models.ReformulatorOutput{Intent: models.IntentClarificationNeeded}
	assert.InDelta(t, 0.0, Confidence(empty), 0.001)

	partial := &models.ReformulatorOutput{
		FromCityName:  "London",
		FromIATACodes: []string{"LHR"},
		Intent:        "modify_origin",
	}
	// 1 of 5 slots plus origin codes plus clear intent.
	assert.InDelta(t, 0.4*0.2+0.2+0.2, Confidence(partial), 0.001)
}

func TestReformulateWithConfidenceForcesClarification(t *testing.T) {
	llm := &fakeLLM{reply: `{"intent": "clarification_needed", "needs_clarification": true, "clarification_question": "Where to?"}`}
	r := NewReformulator(llm)

	out, confidence, err := r.ReformulateWithConfidence(context.Background(), models.ReformulatorInput{UserMessage: "hm"})
	require.NoError(t, err)
	assert.Less(t, confidence, 0.3)
	assert.True(t, out.NeedsClarification)
	assert.Equal(t, "Where to?", out.ClarificationQuestion)
}
