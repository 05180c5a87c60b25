package models

// FlightSegment is one scheduled leg within an itinerary.
type FlightSegment struct {
	FlightNumber     string `json:"flight_number"`
	CarrierCode      string `json:"carrier_code"`
	CarrierName      string `json:"carrier_name,omitempty"`
	DepartureAirport string `json:"departure_airport"`
	DepartureCity    string `json:"departure_city,omitempty"`
	ArrivalAirport   string `json:"arrival_airport"`
	ArrivalCity      string `json:"arrival_city,omitempty"`
	DepartureTime    string `json:"departure_time"`
	ArrivalTime      string `json:"arrival_time"`
	Duration         string `json:"duration,omitempty"`
	AircraftType     string `json:"aircraft_type,omitempty"`
}

// PriceBreakdown carries the fare components of an offer.
type PriceBreakdown struct {
	BaseFare float64 `json:"base_fare"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// BaggageInfo summarises the baggage allowance attached to an offer.
type BaggageInfo struct {
	Weight      string `json:"weight,omitempty"`
	Pieces      int    `json:"pieces,omitempty"`
	Included    bool   `json:"included"`
	Description string `json:"description,omitempty"`
}

// Itinerary is one priced, schedulable flight option. Instances are
// transient: produced by a search, consumed by formatting, never persisted
// beyond the truncated summary text on the conversation record.
type Itinerary struct {
	OutboundSegments []FlightSegment `json:"outbound_segments"`
	ReturnSegments   []FlightSegment `json:"return_segments,omitempty"`
	Price            PriceBreakdown  `json:"price"`
	Baggage          *BaggageInfo    `json:"baggage,omitempty"`
	TotalDuration    string          `json:"total_duration,omitempty"`
	Stops            int             `json:"stops"`
	Brand            string          `json:"brand,omitempty"`
	CabinClass       string          `json:"cabin_class,omitempty"`
	IsRecommended    bool            `json:"is_recommended,omitempty"`

	// Tags set by the bulk search so results can be grouped afterwards.
	SearchDate         string `json:"search_date,omitempty"`
	SearchReturnDate   string `json:"search_return_date,omitempty"`
	OriginAirport      string `json:"origin_airport,omitempty"`
	DestinationAirport string `json:"destination_airport,omitempty"`
}
