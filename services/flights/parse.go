package flights

import (
	"encoding/json"
	"fmt"

	"github.com/HummdG/taza-ticket-clean/models"

	"go.uber.org/zap"
)

// oneOrMany tolerates Travelport fields that arrive as either a single
// object or an array.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var many []T
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

type catalogResponse struct {
	Response struct {
		TransactionID string `json:"transactionId"`
		Result        struct {
			Errors []struct {
				Message string `json:"Message"`
			} `json:"Error"`
		} `json:"Result"`
		Offerings struct {
			Offering oneOrMany[offering] `json:"CatalogProductOffering"`
		} `json:"CatalogProductOfferings"`
	} `json:"CatalogProductOfferingsResponse"`
}

type offering struct {
	Product struct {
		ProductAir struct {
			Journey struct {
				FlightSegment oneOrMany[flightSegment] `json:"FlightSegment"`
			} `json:"Journey"`
		} `json:"ProductAir"`
		ProductBrand struct {
			BrandID string `json:"BrandID"`
		} `json:"ProductBrand"`
	} `json:"Product"`
	OfferingPricing struct {
		TotalPrice priceValue `json:"TotalPrice"`
		BasePrice  priceValue `json:"BasePrice"`
		Taxes      priceValue `json:"Taxes"`
	} `json:"OfferingPricing"`
}

type priceValue struct {
	Value json.Number `json:"value"`
	Code  string      `json:"code"`
}

func (p priceValue) amount() float64 {
	f, err := p.Value.Float64()
	if err != nil {
		return 0
	}
	return f
}

type flightSegment struct {
	From struct {
		Value    string `json:"value"`
		CityName string `json:"cityName"`
	} `json:"From"`
	To struct {
		Value    string `json:"value"`
		CityName string `json:"cityName"`
	} `json:"To"`
	DepartureTime string `json:"DepartureTime"`
	ArrivalTime   string `json:"ArrivalTime"`
	FlightTime    string `json:"FlightTime"`
	FlightDetail  struct {
		MarketingCarrier struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"MarketingCarrier"`
		FlightNumber string `json:"FlightNumber"`
		Equipment    struct {
			Code string `json:"code"`
		} `json:"Equipment"`
	} `json:"FlightDetail"`
}

func (s flightSegment) toModel() models.FlightSegment {
	carrier := s.FlightDetail.MarketingCarrier
	return models.FlightSegment{
		FlightNumber:     fmt.Sprintf("%s%s", carrier.Code, s.FlightDetail.FlightNumber),
		CarrierCode:      carrier.Code,
		CarrierName:      carrier.Name,
		DepartureAirport: s.From.Value,
		DepartureCity:    s.From.CityName,
		ArrivalAirport:   s.To.Value,
		ArrivalCity:      s.To.CityName,
		DepartureTime:    s.DepartureTime,
		ArrivalTime:      s.ArrivalTime,
		Duration:         s.FlightTime,
		AircraftType:     s.FlightDetail.Equipment.Code,
	}
}

// parseOfferings converts catalog offerings into itineraries. Offers that
// cannot be understood are skipped rather than failing the whole search.
func parseOfferings(resp catalogResponse) []models.Itinerary {
	offerings := resp.Response.Offerings.Offering
	itineraries := make([]models.Itinerary, 0, len(offerings))

	for _, off := range offerings {
		raw := off.Product.ProductAir.Journey.FlightSegment
		if len(raw) == 0 {
			continue
		}

		segments := make([]models.FlightSegment, 0, len(raw))
		for _, s := range raw {
			segments = append(segments, s.toModel())
		}

		outbound, ret := splitSegments(segments)

		pricing := off.OfferingPricing
		price := models.PriceBreakdown{
			BaseFare: pricing.BasePrice.amount(),
			Taxes:    pricing.Taxes.amount(),
			Total:    pricing.TotalPrice.amount(),
			Currency: pricing.TotalPrice.Code,
		}
		if price.Currency == "" {
			price.Currency = "USD"
		}

		stops := len(outbound) - 1
		if len(ret) > 0 {
			stops += len(ret) - 1
		}

		itineraries = append(itineraries, models.Itinerary{
			OutboundSegments: outbound,
			ReturnSegments:   ret,
			Price:            price,
			Baggage: &models.BaggageInfo{
				Included:    false,
				Description: "Baggage policy varies by carrier",
			},
			Stops:      stops,
			Brand:      off.Product.ProductBrand.BrandID,
			CabinClass: "Economy",
		})
	}

	zap.L().Info("parsed itineraries",
		zap.Int("itineraries", len(itineraries)), zap.Int("offerings", len(offerings)))
	return itineraries
}

// splitSegments separates outbound from return legs. The return portion
// starts at the first later segment that lands back at the origin.
func splitSegments(segments []models.FlightSegment) ([]models.FlightSegment, []models.FlightSegment) {
	if len(segments) < 2 {
		return segments, nil
	}
	origin := segments[0].DepartureAirport
	for i := 1; i < len(segments); i++ {
		if segments[i].ArrivalAirport == origin {
			return segments[:i], segments[i:]
		}
	}
	return segments, nil
}
