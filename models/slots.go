package models

// TripType enumerates supported journey shapes.
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiCity TripType = "multi_city"
)

// DateSearchType determines how many calendar dates a search spans.
type DateSearchType string

const (
	DateSearchExact DateSearchType = "exact"
	DateSearchMonth DateSearchType = "month"
	DateSearchRange DateSearchType = "range"
)

// Slots accumulates travel-search criteria across conversation turns.
// Fields are only overwritten when a turn produces new values; unset
// extractor output inherits the prior slot values.
type Slots struct {
	FromCity         string         `json:"from_city,omitempty" bson:"from_city,omitempty"`
	ToCity           string         `json:"to_city,omitempty" bson:"to_city,omitempty"`
	Date             string         `json:"date,omitempty" bson:"date,omitempty"` // YYYY-MM-DD
	ReturnDate       string         `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Passengers       int            `json:"passengers,omitempty" bson:"passengers,omitempty"`
	TripType         TripType       `json:"trip_type,omitempty" bson:"trip_type,omitempty"`
	PreferredCarrier string         `json:"preferred_carrier,omitempty" bson:"preferred_carrier,omitempty"`
	FromIATACodes    []string       `json:"from_iata_codes,omitempty" bson:"from_iata_codes,omitempty"`
	ToIATACodes      []string       `json:"to_iata_codes,omitempty" bson:"to_iata_codes,omitempty"`
	DateSearchType   DateSearchType `json:"date_search_type,omitempty" bson:"date_search_type,omitempty"`
	DateRangeStart   string         `json:"date_range_start,omitempty" bson:"date_range_start,omitempty"`
	DateRangeEnd     string         `json:"date_range_end,omitempty" bson:"date_range_end,omitempty"`
}

// Clone returns a deep copy so bulk-search fan-out can vary dates and
// airports without mutating the caller's slots.
func (s Slots) Clone() Slots {
	out := s
	out.FromIATACodes = append([]string(nil), s.FromIATACodes...)
	out.ToIATACodes = append([]string(nil), s.ToIATACodes...)
	return out
}

// PassengerCount returns the passenger count with the default of 1 applied.
func (s Slots) PassengerCount() int {
	if s.Passengers < 1 {
		return 1
	}
	return s.Passengers
}
