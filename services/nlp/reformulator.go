package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HummdG/taza-ticket-clean/models"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"

	"go.uber.org/zap"
)

const (
	historyWindow     = 3
	historyCharLimit  = 100
	lowConfidenceBar  = 0.3
	extractorCoreSlot = 5
)

// travelPatterns are keyword sets surfaced to the model as intent hints.
var travelPatterns = map[string]map[string][]string{
	"trip_types": {
		"one_way":    {"one way", "single", "oneway", "one-way", "just going"},
		"round_trip": {"round trip", "return", "roundtrip", "round-trip", "both ways", "there and back"},
		"multi_city": {"multi city", "multiple cities", "several stops", "multi-city"},
	},
	"date_indicators": {
		"flexible": {"flexible", "any time", "whenever", "doesn't matter", "open"},
		"urgent":   {"asap", "urgent", "soon", "quickly", "immediately"},
		"specific": {"exactly", "specifically", "precisely", "must be"},
	},
	"price_sensitivity": {
		"budget":   {"cheap", "cheapest", "budget", "affordable", "low cost", "economical"},
		"premium":  {"business", "first class", "luxury", "premium", "comfortable"},
		"flexible": {"any price", "price doesn't matter", "whatever it costs"},
	},
}

// Reformulator extracts a structured travel delta from each user message.
type Reformulator interface {
	Reformulate(ctx context.Context, in models.ReformulatorInput) (*models.ReformulatorOutput, error)
	ReformulateWithConfidence(ctx context.Context, in models.ReformulatorInput) (*models.ReformulatorOutput, float64, error)
}

type DefaultReformulator struct {
	llm ai.Client
}

func NewReformulator(llm ai.Client) *DefaultReformulator {
	return &DefaultReformulator{llm: llm}
}

// Reformulate asks the model for a JSON extraction and applies the
// inheritance and validation rules. Any failure degrades to a clarification
// request instead of an error reaching the caller.
func (r *DefaultReformulator) Reformulate(ctx context.Context, in models.ReformulatorInput) (*models.ReformulatorOutput, error) {
	prompt := buildPrompt(in)

	resp, err := r.llm.Chat(ctx, ai.ChatRequest{
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.1,
	})
	if err != nil {
		zap.L().Error("query reformulation failed", zap.Error(err))
		return fallbackOutput(), nil
	}

	var out models.ReformulatorOutput
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		zap.L().Warn("reformulator returned unparseable json", zap.Error(err))
		return fallbackOutput(), nil
	}

	applyBusinessRules(&out, in)
	zap.L().Info("query reformulated", zap.String("intent", out.Intent))
	return &out, nil
}

func buildPrompt(in models.ReformulatorInput) string {
	history := in.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var sb strings.Builder
	sb.WriteString("You are a travel booking query reformulator. Extract clean, structured travel information from user messages.\n\n")

	sb.WriteString("CONTEXT:\nPrevious conversation:\n")
	sb.WriteString(formatHistory(history))
	if in.Summary != "" {
		sb.WriteString("\n\nEarlier conversation summary:\n")
		sb.WriteString(in.Summary)
	}

	sb.WriteString("\n\nCurrent booking state:\n")
	sb.WriteString(formatSlots(in.CurrentSlots))

	fmt.Fprintf(&sb, "\n\nUSER'S LATEST MESSAGE: %q\n\n", in.UserMessage)

	sb.WriteString("INTENT ANALYSIS HINTS:\n")
	sb.WriteString(detectIntentHints(in.UserMessage))

	sb.WriteString(`

EXTRACTION RULES:
1. Extract ONLY explicit travel information from the latest message
2. For cities: Convert to IATA codes when possible (London=LHR,LGW,STN,LTN,LCY; NYC=JFK,LGA,EWR; etc.)
3. For dates: Handle natural language (tomorrow, next Friday, 24th August, September, etc.)
4. For ranges: Detect "cheapest in [month]" or "between [date1] and [date2]"
5. For carriers: Extract airline preferences (TK=Turkish Airlines, BA=British Airways, etc.)
6. Preserve user intent: budget-focused, date-flexible, carrier-specific
7. Flag ambiguities that need clarification

RESPONSE FORMAT (JSON):
{
  "from_city_name": "London" or null,
  "to_city_name": "Dubai" or null,
  "from_iata_codes": ["LHR", "LGW", "STN"] or null,
  "to_iata_codes": ["DXB"] or null,
  "date": "2026-08-24" or null,
  "date_range": "12th-16th August" or null,
  "month": "September 2026" or null,
  "passengers": 2 or null,
  "trip_type": "one_way" or "round_trip" or "multi_city" or null,
  "preferred_carrier": "TK" or null,
  "intent": "search_specific_date" or "search_month_range" or "modify_destination" or "clarify_dates" etc,
  "needs_clarification": false,
  "clarification_question": "What date would you like to travel?" or null,
  "confidence_level": "high" or "medium" or "low",
  "price_sensitivity": "budget" or "flexible" or "premium" or null,
  "flexibility_indicators": ["date_flexible", "airport_flexible"] or []
}

Extract information accurately and flag any ambiguities:`)

	return sb.String()
}

func formatHistory(messages []models.Message) string {
	if len(messages) == 0 {
		return "No previous conversation"
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := "Assistant"
		if msg.Role == models.RoleUser {
			role = "User"
		}
		content := msg.Content
		if len(content) > historyCharLimit {
			content = content[:historyCharLimit] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, content))
	}
	return strings.Join(lines, "\n")
}

func formatSlots(slots models.Slots) string {
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	codes := func(c []string) string {
		if len(c) == 0 {
			return "No codes"
		}
		return strings.Join(c, ",")
	}
	return fmt.Sprintf(`Origin: %s (%s)
Destination: %s (%s)
Departure: %s
Return: %s
Passengers: %d
Trip Type: %s
Preferred Carrier: %s
Search Type: %s`,
		orDefault(slots.FromCity, "Not specified"), codes(slots.FromIATACodes),
		orDefault(slots.ToCity, "Not specified"), codes(slots.ToIATACodes),
		orDefault(slots.Date, "Not specified"),
		orDefault(slots.ReturnDate, "Not specified"),
		slots.PassengerCount(),
		orDefault(string(slots.TripType), "Not specified"),
		orDefault(slots.PreferredCarrier, "No preference"),
		orDefault(string(slots.DateSearchType), "exact"))
}

func detectIntentHints(message string) string {
	lower := strings.ToLower(message)
	var hints []string

	containsAny := func(patterns []string) bool {
		for _, p := range patterns {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}

	labels := map[string]string{
		"trip_types":        "Trip type",
		"date_indicators":   "Date preference",
		"price_sensitivity": "Price sensitivity",
	}
	for _, category := range []string{"trip_types", "date_indicators", "price_sensitivity"} {
		for kind, patterns := range travelPatterns[category] {
			if containsAny(patterns) {
				hints = append(hints, fmt.Sprintf("%s: %s", labels[category], kind))
			}
		}
	}

	if containsAny([]string{"cheapest", "best price", "lowest fare"}) {
		hints = append(hints, "Intent: Find cheapest option")
	}
	if containsAny([]string{"tomorrow", "today", "next week"}) {
		hints = append(hints, "Date type: Relative date")
	}
	if containsAny([]string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}) {
		hints = append(hints, "Date type: Monthly search")
	}
	if strings.Contains(lower, "between") && strings.Contains(lower, "and") {
		hints = append(hints, "Date type: Range search")
	}

	if len(hints) == 0 {
		return "No specific patterns detected"
	}
	return strings.Join(hints, "\n")
}

// applyBusinessRules inherits unset fields from the accumulated slots,
// normalizes IATA codes and forces clarification when the critical slots
// are still all missing.
func applyBusinessRules(out *models.ReformulatorOutput, in models.ReformulatorInput) {
	current := in.CurrentSlots

	if out.FromCityName == "" && current.FromCity != "" {
		out.FromCityName = current.FromCity
		out.FromIATACodes = current.FromIATACodes
	}
	if out.ToCityName == "" && current.ToCity != "" {
		out.ToCityName = current.ToCity
		out.ToIATACodes = current.ToIATACodes
	}
	if out.Passengers == 0 && current.Passengers != 0 {
		out.Passengers = current.Passengers
	}
	if out.TripType == "" && current.TripType != "" {
		out.TripType = current.TripType
	}
	if out.TripType == "" && out.Date != "" && out.Month == "" && out.DateRange == "" {
		out.TripType = models.TripOneWay
	}

	out.FromIATACodes = normalizeCodes(out.FromIATACodes)
	out.ToIATACodes = normalizeCodes(out.ToIATACodes)

	if !out.NeedsClarification {
		var missing []string
		if out.FromCityName == "" && current.FromCity == "" {
			missing = append(missing, "origin")
		}
		if out.ToCityName == "" && current.ToCity == "" {
			missing = append(missing, "destination")
		}
		if !out.HasDateInput() && current.Date == "" {
			missing = append(missing, "travel date")
		}
		if len(missing) > 0 {
			out.NeedsClarification = true
			out.ClarificationQuestion = fmt.Sprintf(
				"I need to know your %s to find flights for you.", strings.Join(missing, ", "))
		}
	}
}

func normalizeCodes(codes []string) []string {
	if len(codes) == 0 {
		return codes
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) == 3 {
			out = append(out, c)
		}
	}
	return out
}

func fallbackOutput() *models.ReformulatorOutput {
	zap.L().Warn("using fallback reformulation output")
	return &models.ReformulatorOutput{
		Intent:                models.IntentClarificationNeeded,
		NeedsClarification:    true,
		ClarificationQuestion: "I need more information about your travel plans. Could you please tell me your origin, destination, and travel date?",
		ConfidenceLevel:       "low",
	}
}

// Confidence scores how trustworthy an extraction is. Extraction coverage
// carries 40%, airport resolution 40% and intent clarity 20%.
func Confidence(out *models.ReformulatorOutput) float64 {
	extracted := 0
	if out.FromCityName != "" {
		extracted++
	}
	if out.ToCityName != "" {
		extracted++
	}
	if out.HasDateInput() {
		extracted++
	}
	if out.Passengers > 0 {
		extracted++
	}
	if out.TripType != "" {
		extracted++
	}

	score := float64(extracted) / extractorCoreSlot * 0.4
	if len(out.FromIATACodes) > 0 {
		score += 0.2
	}
	if len(out.ToIATACodes) > 0 {
		score += 0.2
	}
	if out.Intent != "" && out.Intent != models.IntentClarificationNeeded {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	return score
}

// ReformulateWithConfidence runs the extraction and forces clarification
// when the score falls below the threshold.
func (r *DefaultReformulator) ReformulateWithConfidence(ctx context.Context, in models.ReformulatorInput) (*models.ReformulatorOutput, float64, error) {
	out, err := r.Reformulate(ctx, in)
	if err != nil {
		return nil, 0, err
	}

	confidence := Confidence(out)
	if confidence < lowConfidenceBar {
		out.NeedsClarification = true
		if out.ClarificationQuestion == "" {
			out.ClarificationQuestion = "I need more details to help you find the right flights."
		}
	}

	zap.L().Info("reformulation confidence", zap.Float64("confidence", confidence))
	return out, confidence, nil
}
