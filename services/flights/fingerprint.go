package flights

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/HummdG/taza-ticket-clean/models"
)

// searchParams is the canonical subset of the slots that defines a search.
// Field order is fixed so the encoded form is stable.
type searchParams struct {
	FromIATA         []string        `json:"from_iata"`
	ToIATA           []string        `json:"to_iata"`
	Date             string          `json:"date"`
	ReturnDate       string          `json:"return_date"`
	Passengers       int             `json:"passengers"`
	TripType         models.TripType `json:"trip_type"`
	PreferredCarrier string          `json:"preferred_carrier"`
}

// SearchHash fingerprints the search-relevant slots. Two slot states with
// the same fingerprint would produce the same supplier queries, so a
// matching fingerprint means the previous results still stand.
func SearchHash(slots models.Slots) string {
	params := searchParams{
		FromIATA:         slots.FromIATACodes,
		ToIATA:           slots.ToIATACodes,
		Date:             slots.Date,
		ReturnDate:       slots.ReturnDate,
		Passengers:       slots.PassengerCount(),
		TripType:         slots.TripType,
		PreferredCarrier: slots.PreferredCarrier,
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		// A fixed struct of strings and ints cannot fail to encode.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
