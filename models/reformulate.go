package models

// ReformulatorInput bundles everything the extractor sees for one turn.
type ReformulatorInput struct {
	UserMessage  string
	History      []Message
	CurrentSlots Slots
	Summary      string
}

// IntentClarificationNeeded is the sentinel intent produced when the
// extractor could not derive a usable travel request.
const IntentClarificationNeeded = "clarification_needed"

// ReformulatorOutput is the structured travel delta extracted from one
// user message. Nil-equivalent fields mean "no new information"; the
// slot-fill stage inherits prior values for those.
type ReformulatorOutput struct {
	FromCityName          string   `json:"from_city_name,omitempty"`
	ToCityName            string   `json:"to_city_name,omitempty"`
	FromIATACodes         []string `json:"from_iata_codes,omitempty"`
	ToIATACodes           []string `json:"to_iata_codes,omitempty"`
	Date                  string   `json:"date,omitempty"`
	DateRange             string   `json:"date_range,omitempty"`
	Month                 string   `json:"month,omitempty"`
	Passengers            int      `json:"passengers,omitempty"`
	TripType              TripType `json:"trip_type,omitempty"`
	PreferredCarrier      string   `json:"preferred_carrier,omitempty"`
	Intent                string   `json:"intent,omitempty"`
	NeedsClarification    bool     `json:"needs_clarification"`
	ClarificationQuestion string   `json:"clarification_question,omitempty"`
	ConfidenceLevel       string   `json:"confidence_level,omitempty"`
	PriceSensitivity      string   `json:"price_sensitivity,omitempty"`
	FlexibilityIndicators []string `json:"flexibility_indicators,omitempty"`
}

// HasDateInput reports whether the extractor produced any date signal.
func (o *ReformulatorOutput) HasDateInput() bool {
	return o.Date != "" || o.DateRange != "" || o.Month != ""
}
