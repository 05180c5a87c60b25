package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	conversationRepo "github.com/HummdG/taza-ticket-clean/database/repository/conversation"
	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/flights"
	"github.com/HummdG/taza-ticket-clean/services/formatter"
	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"
	"github.com/HummdG/taza-ticket-clean/services/nlp"
	"github.com/HummdG/taza-ticket-clean/services/search"

	"github.com/HummdG/taza-ticket-clean/services/airports"
	"github.com/HummdG/taza-ticket-clean/services/dates"

	"go.uber.org/zap"
)

const (
	// maxPresentedOptions caps how many itineraries a reply carries.
	maxPresentedOptions = 3
	// itinerarySummaryLimit bounds the summary text stored on the record.
	itinerarySummaryLimit = 500
	// turnSaveAttempts bounds retries when a concurrent turn for the same
	// user wins the conditional write.
	turnSaveAttempts = 3
	// historyWindow is how many trailing messages the extractor sees.
	historyWindow = 5
)

// MediaStore persists generated audio and returns a public URL for it.
type MediaStore interface {
	UploadAudio(ctx context.Context, data []byte, userID string) (string, error)
}

// TurnContext is the mutable state threaded through one pass of the graph.
type TurnContext struct {
	UserID       string
	UserMessage  string
	Conversation *models.Conversation

	Reformulated  *models.ReformulatorOutput
	SearchResults []models.Itinerary
	SummaryText   string

	ShouldSearch          bool
	UseCachedResults      bool
	NeedsClarification    bool
	ClarificationQuestion string

	ResponseText string
}

// TurnInput is one inbound user message, already transcribed if it arrived
// as a voice note.
type TurnInput struct {
	UserID   string
	Message  string
	Modality models.MessageModality
	MediaURL string
}

// TurnResult is the reply to deliver.
type TurnResult struct {
	Text     string
	Modality models.MessageModality
	MediaURL string
}

// Deps wires the agent's collaborators.
type Deps struct {
	LLM          ai.Client
	Repo         conversationRepo.ConversationRepository
	Reformulator nlp.Reformulator
	Airports     airports.Resolver
	Dates        *dates.Service
	Search       *search.Strategy
	Formatter    *formatter.Formatter
	Synthesizer  ai.Synthesizer
	Media        MediaStore
}

// Agent orchestrates one conversation turn: extract intent, fill slots,
// decide whether to search, search, and compose the reply.
type Agent struct {
	llm          ai.Client
	repo         conversationRepo.ConversationRepository
	reformulator nlp.Reformulator
	airports     airports.Resolver
	dates        *dates.Service
	search       *search.Strategy
	formatter    *formatter.Formatter
	synth        ai.Synthesizer
	media        MediaStore
	summarizer   *Summarizer
}

func NewAgent(deps Deps) *Agent {
	if err := validateTransitions(); err != nil {
		panic(fmt.Sprintf("agent transition table: %v", err))
	}
	return &Agent{
		llm:          deps.LLM,
		repo:         deps.Repo,
		reformulator: deps.Reformulator,
		airports:     deps.Airports,
		dates:        deps.Dates,
		search:       deps.Search,
		formatter:    deps.Formatter,
		synth:        deps.Synthesizer,
		media:        deps.Media,
		summarizer:   NewSummarizer(deps.LLM),
	}
}

// ProcessTurn runs one full turn and never fails outward: any error ends in
// a localized fallback reply. Version conflicts on the conditional write
// restart the turn against the refreshed record.
func (a *Agent) ProcessTurn(ctx context.Context, in TurnInput) TurnResult {
	lang := "en"
	for attempt := 1; attempt <= turnSaveAttempts; attempt++ {
		res, turnLang, err := a.runTurn(ctx, in)
		if turnLang != "" {
			lang = turnLang
		}
		if err == nil {
			return res
		}
		if errors.Is(err, conversationRepo.ErrVersionConflict) {
			zap.L().Warn("turn lost conditional write, retrying",
				zap.String("userId", in.UserID),
				zap.Int("attempt", attempt))
			continue
		}
		zap.L().Error("turn processing failed",
			zap.String("userId", in.UserID),
			zap.Error(err))
		break
	}
	return TurnResult{Text: fallbackResponse(lang), Modality: models.ModalityText}
}

func (a *Agent) runTurn(ctx context.Context, in TurnInput) (TurnResult, string, error) {
	conv, err := a.repo.Get(ctx, in.UserID)
	if err != nil {
		return TurnResult{}, "", fmt.Errorf("loading conversation: %w", err)
	}
	if conv == nil {
		conv = models.NewConversation(in.UserID)
	}

	lang := conv.Language
	if lang == "" {
		detected, err := a.llm.DetectLanguage(ctx, in.Message)
		if err != nil || detected == "" {
			lang = "en"
		} else {
			lang = detected
		}
		conv.Language = lang
	}

	conv.Append(models.Message{
		Role:      models.RoleUser,
		Content:   in.Message,
		Modality:  in.Modality,
		Language:  lang,
		Timestamp: time.Now().UTC(),
		MediaURL:  in.MediaURL,
	})

	tc := &TurnContext{
		UserID:       in.UserID,
		UserMessage:  in.Message,
		Conversation: conv,
	}
	a.runGraph(ctx, tc)

	responseText := tc.ResponseText
	if responseText == "" {
		responseText = fallbackResponse(conv.Language)
	}

	targetModality := conv.LastModality
	if targetModality == "" {
		targetModality = models.ModalityText
	}

	mediaURL := ""
	if targetModality == models.ModalityVoice {
		mediaURL = a.renderVoice(ctx, in.UserID, responseText, conv.Language)
		if mediaURL == "" {
			targetModality = models.ModalityText
		}
	}

	conv.Append(models.Message{
		Role:      models.RoleAssistant,
		Content:   responseText,
		Modality:  targetModality,
		Language:  conv.Language,
		Timestamp: time.Now().UTC(),
		MediaURL:  mediaURL,
	})

	a.summarizer.Compact(ctx, conv)

	if err := a.repo.Save(ctx, conv); err != nil {
		return TurnResult{}, lang, err
	}

	zap.L().Info("turn completed",
		zap.String("userId", in.UserID),
		zap.String("modality", string(targetModality)),
		zap.String("state", string(conv.State)))

	return TurnResult{Text: responseText, Modality: targetModality, MediaURL: mediaURL}, lang, nil
}

// renderVoice synthesizes and uploads a voice reply. Any failure returns ""
// so the caller falls back to text.
func (a *Agent) renderVoice(ctx context.Context, userID, text, language string) string {
	if a.synth == nil || a.media == nil {
		return ""
	}
	audio, err := a.synth.Synthesize(ctx, text, language)
	if err != nil {
		zap.L().Warn("voice synthesis failed, replying with text", zap.Error(err))
		return ""
	}
	url, err := a.media.UploadAudio(ctx, audio, userID)
	if err != nil {
		zap.L().Warn("voice upload failed, replying with text", zap.Error(err))
		return ""
	}
	return url
}

func (a *Agent) runGraph(ctx context.Context, tc *TurnContext) {
	node := entryNode
	// One pass visits each node at most once; the bound guards against a
	// future edit introducing a cycle.
	for step := 0; step <= len(transitions); step++ {
		a.runNode(ctx, node, tc)
		if isTerminal(node) {
			return
		}
		next := decideNext(node, tc)
		if !allowedTransition(node, next) {
			zap.L().Error("illegal turn transition",
				zap.String("from", string(node)),
				zap.String("to", string(next)))
			next = NodeRespond
		}
		node = next
	}
}

func (a *Agent) runNode(ctx context.Context, node Node, tc *TurnContext) {
	switch node {
	case NodeReformulate:
		a.reformulateNode(ctx, tc)
	case NodeFillSlots:
		a.fillSlotsNode(ctx, tc)
	case NodePlanSearch:
		a.planSearchNode(tc)
	case NodeRunSearch:
		a.runSearchNode(ctx, tc)
	case NodeSummarize:
		a.summarizeNode(tc)
	case NodeClarify:
		a.clarifyNode(ctx, tc)
	case NodeRespond:
		a.respondNode(ctx, tc)
	}
}

func (a *Agent) reformulateNode(ctx context.Context, tc *TurnContext) {
	in := models.ReformulatorInput{
		UserMessage:  tc.UserMessage,
		History:      tc.Conversation.RecentMessages(historyWindow),
		CurrentSlots: tc.Conversation.Slots,
		Summary:      tc.Conversation.Summary,
	}

	out, confidence, err := a.reformulator.ReformulateWithConfidence(ctx, in)
	if err != nil {
		zap.L().Warn("query reformulation failed", zap.Error(err))
		return
	}

	zap.L().Info("query reformulated",
		zap.String("intent", out.Intent),
		zap.Float64("confidence", confidence))

	tc.Reformulated = out
	if out.NeedsClarification && out.ClarificationQuestion != "" {
		tc.NeedsClarification = true
		tc.ClarificationQuestion = out.ClarificationQuestion
	}
}

func (a *Agent) fillSlotsNode(ctx context.Context, tc *TurnContext) {
	q := tc.Reformulated
	if q == nil {
		return
	}

	slots := &tc.Conversation.Slots
	updated := false

	if q.FromCityName != "" && q.FromCityName != slots.FromCity {
		slots.FromCity = q.FromCityName
		if len(q.FromIATACodes) > 0 {
			slots.FromIATACodes = q.FromIATACodes
		} else {
			slots.FromIATACodes = a.airports.Resolve(ctx, q.FromCityName)
		}
		updated = true
	}

	if q.ToCityName != "" && q.ToCityName != slots.ToCity {
		slots.ToCity = q.ToCityName
		if len(q.ToIATACodes) > 0 {
			slots.ToIATACodes = q.ToIATACodes
		} else {
			slots.ToIATACodes = a.airports.Resolve(ctx, q.ToCityName)
		}
		updated = true
	}

	dateInput := q.Date
	if dateInput == "" {
		dateInput = q.DateRange
	}
	if dateInput == "" {
		dateInput = q.Month
	}
	if dateInput != "" {
		if searchType, start, end, ok := a.dates.Parse(dateInput); ok {
			slots.Date = start
			slots.DateSearchType = searchType
			slots.DateRangeStart = start
			slots.DateRangeEnd = end
			updated = true
		} else {
			zap.L().Debug("date input not understood", zap.String("input", dateInput))
		}
	}

	if q.Passengers != 0 && q.Passengers != slots.Passengers {
		slots.Passengers = q.Passengers
		updated = true
	}
	if q.TripType != "" && q.TripType != slots.TripType {
		slots.TripType = q.TripType
		updated = true
	}
	if q.PreferredCarrier != "" && q.PreferredCarrier != slots.PreferredCarrier {
		slots.PreferredCarrier = q.PreferredCarrier
		updated = true
	}

	if updated {
		tc.Conversation.State = models.StateCollecting
		zap.L().Info("slots updated",
			zap.String("from", slots.FromCity),
			zap.String("to", slots.ToCity),
			zap.String("date", slots.Date))
	}
}

func (a *Agent) planSearchNode(tc *TurnContext) {
	slots := tc.Conversation.Slots

	if issues := ValidateSlots(slots); len(issues) > 0 {
		tc.NeedsClarification = true
		tc.ClarificationQuestion = "Some of your trip details need a second look: " +
			strings.Join(issues, "; ") + "."
		zap.L().Info("slot validation failed", zap.Strings("issues", issues))
		return
	}

	if missing := MissingRequiredSlots(slots); len(missing) > 0 {
		tc.NeedsClarification = true
		tc.ClarificationQuestion = fmt.Sprintf(
			"I need more information about your trip. Please provide: %s.",
			strings.Join(missing, ", "))
		zap.L().Info("clarification required", zap.Strings("missing", missing))
		return
	}

	if ShouldUseCachedResults(tc.Conversation, slots) {
		zap.L().Info("reusing completed search results",
			zap.String("userId", tc.UserID))
		tc.ShouldSearch = false
		tc.UseCachedResults = true
		return
	}
	tc.ShouldSearch = true
}

func (a *Agent) runSearchNode(ctx context.Context, tc *TurnContext) {
	slots := tc.Conversation.Slots
	tc.Conversation.State = models.StateSearching

	var (
		itineraries []models.Itinerary
		err         error
	)
	switch slots.DateSearchType {
	case models.DateSearchMonth:
		var start time.Time
		start, err = time.Parse("2006-01-02", slots.DateRangeStart)
		if err != nil {
			err = fmt.Errorf("month search start %q: %w", slots.DateRangeStart, err)
			break
		}
		itineraries, err = a.search.SearchMonth(ctx, slots, start.Month(), start.Year())
	case models.DateSearchRange:
		itineraries, err = a.search.SearchRange(ctx, slots, slots.DateRangeStart, slots.DateRangeEnd)
	default:
		itineraries, err = a.search.SearchExactDate(ctx, slots)
	}
	if err != nil {
		zap.L().Error("flight search failed", zap.Error(err))
		tc.SearchResults = []models.Itinerary{}
		return
	}

	tc.SearchResults = search.Cheapest(itineraries, maxPresentedOptions)
	tc.Conversation.State = models.StatePresenting
	tc.Conversation.LastCompletedSearch = flights.SearchHash(slots)

	zap.L().Info("search completed",
		zap.Int("candidates", len(itineraries)),
		zap.Int("presented", len(tc.SearchResults)))
}

func (a *Agent) summarizeNode(tc *TurnContext) {
	if len(tc.SearchResults) == 0 {
		return
	}

	best := search.Cheapest(tc.SearchResults, maxPresentedOptions)

	searchType := tc.Conversation.Slots.DateSearchType
	if searchType == models.DateSearchMonth || searchType == models.DateSearchRange {
		if bestDate := cheapestDate(tc.SearchResults); bestDate != "" {
			for i := range best {
				if best[i].SearchDate == bestDate {
					best[i].IsRecommended = true
				}
			}
		}
	}

	parts := []string{}
	if len(best) == 1 {
		parts = append(parts, "I found the perfect flight for you!")
	} else {
		parts = append(parts, fmt.Sprintf("I found %d great options for you:", len(best)))
		minPrice, maxPrice := best[0].Price.Total, best[0].Price.Total
		for _, it := range best[1:] {
			if it.Price.Total < minPrice {
				minPrice = it.Price.Total
			}
			if it.Price.Total > maxPrice {
				maxPrice = it.Price.Total
			}
		}
		currency := best[0].Price.Currency
		if minPrice != maxPrice {
			parts = append(parts, fmt.Sprintf("Prices range from %s to %s.",
				formatter.FormatPrice(minPrice, currency),
				formatter.FormatPrice(maxPrice, currency)))
		} else {
			parts = append(parts, fmt.Sprintf("All options are priced at %s.",
				formatter.FormatPrice(minPrice, currency)))
		}
	}

	tc.SearchResults = best
	tc.SummaryText = strings.Join(parts, " ")
}

// cheapestDate returns the search date whose cheapest option beats every
// other date's cheapest option.
func cheapestDate(itineraries []models.Itinerary) string {
	groups := search.GroupByDate(itineraries)
	bestDate := ""
	bestPrice := 0.0
	for date, group := range groups {
		min := group[0].Price.Total
		for _, it := range group[1:] {
			if it.Price.Total < min {
				min = it.Price.Total
			}
		}
		if bestDate == "" || min < bestPrice || (min == bestPrice && date < bestDate) {
			bestDate = date
			bestPrice = min
		}
	}
	return bestDate
}

func (a *Agent) clarifyNode(ctx context.Context, tc *TurnContext) {
	question := tc.ClarificationQuestion
	if question == "" {
		question = "I need more information to help you find flights. Could you please " +
			"provide your origin, destination, and travel date?"
	}
	tc.ResponseText = a.naturalize(ctx, tc.Conversation, question)
	tc.Conversation.State = models.StateClarifying
}

func (a *Agent) respondNode(ctx context.Context, tc *TurnContext) {
	conv := tc.Conversation
	modality := conv.LastModality
	if modality == "" {
		modality = models.ModalityText
	}

	var content string
	if len(tc.SearchResults) > 0 {
		content = a.formatter.MultipleOptions(tc.SearchResults, modality, maxPresentedOptions)
		conv.LastItinerarySummary = truncate(content, itinerarySummaryLimit)
	} else if tc.UseCachedResults && conv.LastItinerarySummary != "" {
		// Repeat request for a search that already completed: the stored
		// summary answers it without another supplier round trip.
		content = conv.LastItinerarySummary
	} else {
		content = a.formatter.NoResults(map[string]string{
			"from":       conv.Slots.FromCity,
			"to":         conv.Slots.ToCity,
			"date":       conv.Slots.Date,
			"passengers": fmt.Sprintf("%d", conv.Slots.PassengerCount()),
		}, modality)
	}
	if tc.SummaryText != "" {
		content = tc.SummaryText + "\n\n" + content
	}

	tc.ResponseText = a.naturalize(ctx, conv, content)
	conv.State = models.StatePresenting
}

var languageNames = map[string]string{
	"en": "English",
	"ur": "Urdu",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ar": "Arabic",
	"hi": "Hindi",
}

// naturalize rewrites prepared content as a natural reply in the user's
// language and modality. On any model failure the prepared content goes out
// as-is.
func (a *Agent) naturalize(ctx context.Context, conv *models.Conversation, content string) string {
	style := "Format as a clear, well-structured text message with proper sections " +
		"and bullet points where helpful."
	if conv.LastModality == models.ModalityVoice {
		style = "Format as natural, conversational speech. Keep it concise and easy " +
			"to understand when spoken aloud. Use simple sentences."
	}

	languageName, ok := languageNames[conv.Language]
	if !ok {
		languageName = "English"
	}

	system := fmt.Sprintf("You are a helpful travel booking assistant. Respond in %s.\n\n"+
		"%s\n\nBe friendly, professional, and helpful. If providing flight information, "+
		"include all relevant details clearly.", languageName, style)

	var contextLines []string
	for _, msg := range conv.RecentMessages(3) {
		contextLines = append(contextLines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	contextStr := "New conversation"
	if len(contextLines) > 0 {
		contextStr = strings.Join(contextLines, "\n")
	}

	prompt := fmt.Sprintf("Recent conversation:\n%s\n\nPlease format this response "+
		"content appropriately:\n%s", contextStr, content)

	reply, err := a.llm.Chat(ctx, ai.ChatRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		zap.L().Warn("response naturalization failed", zap.Error(err))
		return content
	}
	return reply
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

var fallbackResponses = map[string]string{
	"en": "I apologize, but I'm having technical difficulties. Please try again in a moment.",
	"ur": "معذرت، مجھے تکنیکی مسائل کا سامنا ہے۔ برائے مہربانی ایک لمحے میں دوبارہ کوشش کریں۔",
	"es": "Me disculpo, pero estoy teniendo dificultades técnicas. Por favor, inténtalo de nuevo en un momento.",
	"fr": "Je m'excuse, mais j'ai des difficultés techniques. Veuillez réessayer dans un moment.",
	"de": "Entschuldigung, ich habe technische Schwierigkeiten. Bitte versuchen Sie es gleich erneut.",
	"ar": "أعتذر، لكنني أواجه صعوبات تقنية. يرجى المحاولة مرة أخرى بعد لحظة.",
}

func fallbackResponse(language string) string {
	if msg, ok := fallbackResponses[language]; ok {
		return msg
	}
	return fallbackResponses["en"]
}
