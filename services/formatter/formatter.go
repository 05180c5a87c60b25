package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/airports"
)

// Formatter renders itineraries as WhatsApp text or as prose suitable for
// speech synthesis.
type Formatter struct {
	airports airports.Resolver
}

func New(resolver airports.Resolver) *Formatter {
	return &Formatter{airports: resolver}
}

// FormatDuration renders minutes as "2h 30m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// FormatTime extracts HH:MM from an ISO timestamp; anything else passes
// through unchanged.
func FormatTime(timeStr string) string {
	if !strings.Contains(timeStr, "T") {
		return timeStr
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return t.Format("15:04")
		}
	}
	return timeStr
}

// FormatDate renders a YYYY-MM-DD or ISO timestamp as "24 Aug 2026".
func FormatDate(dateStr string) string {
	layouts := []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Format("02 Jan 2006")
		}
	}
	return dateStr
}

// FormatPrice renders a total with its currency, dollars as "$523".
func FormatPrice(price float64, currency string) string {
	if currency == "" || currency == "USD" {
		return fmt.Sprintf("$%.0f", price)
	}
	return fmt.Sprintf("%s %.0f", currency, price)
}

// AirportInfo decorates a code with its city name when known.
func (f *Formatter) AirportInfo(code string) string {
	if city := f.airports.CityName(code); city != "" {
		return fmt.Sprintf("%s (%s)", code, city)
	}
	return code
}

func (f *Formatter) cityOrCode(code string) string {
	if city := f.airports.CityName(code); city != "" {
		return city
	}
	return code
}

// parseDurationMinutes understands ISO 8601 (PT2H30M), "2h 30m", "2:30"
// and bare minute counts.
func parseDurationMinutes(s string) int {
	if s == "" {
		return 0
	}

	if strings.HasPrefix(s, "PT") {
		rest := s[2:]
		hours, minutes := 0, 0
		if i := strings.IndexByte(rest, 'H'); i >= 0 {
			hours, _ = strconv.Atoi(rest[:i])
			rest = rest[i+1:]
		}
		if i := strings.IndexByte(rest, 'M'); i >= 0 {
			minutes, _ = strconv.Atoi(rest[:i])
		}
		return hours*60 + minutes
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "h") {
		parts := strings.Fields(strings.ReplaceAll(strings.ReplaceAll(lower, "h", " "), "m", " "))
		hours, minutes := 0, 0
		if len(parts) > 0 {
			hours, _ = strconv.Atoi(parts[0])
		}
		if len(parts) > 1 {
			minutes, _ = strconv.Atoi(parts[1])
		}
		return hours*60 + minutes
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		hours, _ := strconv.Atoi(parts[0])
		minutes := 0
		if len(parts) > 1 {
			minutes, _ = strconv.Atoi(parts[1])
		}
		return hours*60 + minutes
	}

	minutes, _ := strconv.Atoi(s)
	return minutes
}

func (f *Formatter) writeSegments(sb *strings.Builder, heading string, segments []models.FlightSegment) {
	fmt.Fprintf(sb, "%s\n", heading)
	for i, seg := range segments {
		label := "Flight"
		if len(segments) > 1 {
			label = fmt.Sprintf("Segment %d", i+1)
		}
		fmt.Fprintf(sb, "  *%s:* %s (%s)\n", label, seg.FlightNumber, seg.CarrierName)
		fmt.Fprintf(sb, "  *Route:* %s → %s\n", f.AirportInfo(seg.DepartureAirport), f.AirportInfo(seg.ArrivalAirport))
		fmt.Fprintf(sb, "  *Time:* %s - %s\n", FormatTime(seg.DepartureTime), FormatTime(seg.ArrivalTime))
		if mins := parseDurationMinutes(seg.Duration); mins > 0 {
			fmt.Fprintf(sb, "  *Duration:* %s\n", FormatDuration(mins))
		}
		if i < len(segments)-1 {
			sb.WriteString("\n")
		}
	}
}

// ItineraryText renders one itinerary with full detail for a text reply.
func (f *Formatter) ItineraryText(it models.Itinerary) string {
	var sb strings.Builder

	sb.WriteString("✈️ *Flight Details*\n\n")
	f.writeSegments(&sb, "🛫 *Outbound:*", it.OutboundSegments)

	if len(it.ReturnSegments) > 0 {
		sb.WriteString("\n")
		f.writeSegments(&sb, "🛬 *Return:*", it.ReturnSegments)
	}

	sb.WriteString("\n📊 *Journey Summary*\n")
	if it.Stops > 0 {
		fmt.Fprintf(&sb, "  *Stops:* %d\n", it.Stops)
	} else {
		sb.WriteString("  *Type:* Direct flight\n")
	}
	if it.CabinClass != "" {
		fmt.Fprintf(&sb, "  *Cabin:* %s\n", it.CabinClass)
	}

	sb.WriteString("\n💰 *Price Breakdown*\n")
	fmt.Fprintf(&sb, "  *Base Fare:* %s\n", FormatPrice(it.Price.BaseFare, it.Price.Currency))
	if it.Price.Taxes > 0 {
		fmt.Fprintf(&sb, "  *Taxes & Fees:* %s\n", FormatPrice(it.Price.Taxes, it.Price.Currency))
	}
	fmt.Fprintf(&sb, "  *Total:* %s\n", FormatPrice(it.Price.Total, it.Price.Currency))

	if it.Baggage != nil {
		sb.WriteString("\n🧳 *Baggage*\n")
		switch {
		case it.Baggage.Included && it.Baggage.Weight != "":
			fmt.Fprintf(&sb, "  *Allowance:* %s\n", it.Baggage.Weight)
		case it.Baggage.Included && it.Baggage.Pieces > 0:
			fmt.Fprintf(&sb, "  *Allowance:* %d piece(s)\n", it.Baggage.Pieces)
		case it.Baggage.Included:
			sb.WriteString("  *Allowance:* Included\n")
		default:
			sb.WriteString("  *Allowance:* Not included\n")
		}
		if it.Baggage.Description != "" {
			fmt.Fprintf(&sb, "  *Details:* %s\n", it.Baggage.Description)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// ItineraryVoice renders one itinerary as speakable prose.
func (f *Formatter) ItineraryVoice(it models.Itinerary) string {
	first := it.OutboundSegments[0]
	last := it.OutboundSegments[len(it.OutboundSegments)-1]

	var parts []string
	parts = append(parts, fmt.Sprintf("I found a flight from %s to %s for %s.",
		f.cityOrCode(first.DepartureAirport), f.cityOrCode(last.ArrivalAirport),
		FormatPrice(it.Price.Total, it.Price.Currency)))

	if len(it.OutboundSegments) == 1 {
		parts = append(parts, fmt.Sprintf("It's a direct flight with %s, departing at %s and arriving at %s.",
			first.CarrierName, FormatTime(first.DepartureTime), FormatTime(first.ArrivalTime)))
	} else {
		stops := len(it.OutboundSegments) - 1
		parts = append(parts, fmt.Sprintf("This journey has %d %s.", stops, plural(stops, "stop", "stops")))
	}

	if len(it.ReturnSegments) > 0 {
		retFirst := it.ReturnSegments[0]
		retLast := it.ReturnSegments[len(it.ReturnSegments)-1]
		if len(it.ReturnSegments) == 1 {
			parts = append(parts, fmt.Sprintf("The return flight departs at %s and arrives at %s.",
				FormatTime(retFirst.DepartureTime), FormatTime(retLast.ArrivalTime)))
		} else {
			stops := len(it.ReturnSegments) - 1
			parts = append(parts, fmt.Sprintf("The return journey has %d %s, departing at %s.",
				stops, plural(stops, "stop", "stops"), FormatTime(retFirst.DepartureTime)))
		}
	}

	if it.Baggage != nil && it.Baggage.Included {
		if it.Baggage.Weight != "" {
			parts = append(parts, fmt.Sprintf("Baggage allowance is %s.", it.Baggage.Weight))
		} else {
			parts = append(parts, "Baggage is included.")
		}
	}

	return strings.Join(parts, " ")
}

// MultipleOptions renders up to maxOptions itineraries in the requested
// modality.
func (f *Formatter) MultipleOptions(itineraries []models.Itinerary, modality models.MessageModality, maxOptions int) string {
	if len(itineraries) == 0 {
		return "Sorry, no flights were found for your search criteria."
	}
	if maxOptions > 0 && len(itineraries) > maxOptions {
		itineraries = itineraries[:maxOptions]
	}

	if modality == models.ModalityVoice {
		return f.multipleOptionsVoice(itineraries)
	}
	return f.multipleOptionsText(itineraries)
}

func (f *Formatter) multipleOptionsText(itineraries []models.Itinerary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 *Found %d flight %s:*\n\n",
		len(itineraries), plural(len(itineraries), "option", "options"))

	for i, it := range itineraries {
		first := it.OutboundSegments[0]
		last := it.OutboundSegments[len(it.OutboundSegments)-1]

		fmt.Fprintf(&sb, "*Option %d:* %s → %s\n", i+1,
			f.cityOrCode(first.DepartureAirport), f.cityOrCode(last.ArrivalAirport))
		fmt.Fprintf(&sb, "  ⏰ %s - %s\n", FormatTime(first.DepartureTime), FormatTime(last.ArrivalTime))
		fmt.Fprintf(&sb, "  💰 %s\n", FormatPrice(it.Price.Total, it.Price.Currency))

		if it.Stops == 0 {
			sb.WriteString("  🛫 Direct flight\n")
		} else {
			fmt.Fprintf(&sb, "  🔄 %d %s\n", it.Stops, plural(it.Stops, "stop", "stops"))
		}

		carriers := carrierNames(it)
		fmt.Fprintf(&sb, "  ✈️ %s\n", strings.Join(carriers, ", "))

		if it.SearchDate != "" {
			fmt.Fprintf(&sb, "  📅 %s\n", FormatDate(it.SearchDate))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) multipleOptionsVoice(itineraries []models.Itinerary) string {
	if len(itineraries) == 1 {
		return f.ItineraryVoice(itineraries[0])
	}

	parts := []string{fmt.Sprintf("I found %d flight options for you.", len(itineraries))}
	for i, it := range itineraries {
		first := it.OutboundSegments[0]
		option := fmt.Sprintf("Option %d: departing at %s for %s",
			i+1, FormatTime(first.DepartureTime), FormatPrice(it.Price.Total, it.Price.Currency))

		switch it.Stops {
		case 0:
			option += " with no stops"
		case 1:
			option += " with one stop"
		default:
			option += fmt.Sprintf(" with %d stops", it.Stops)
		}
		parts = append(parts, option+".")
	}
	return strings.Join(parts, " ")
}

// carrierNames collects distinct carrier names across all segments in
// appearance order.
func carrierNames(it models.Itinerary) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(segments []models.FlightSegment) {
		for _, seg := range segments {
			if seg.CarrierName == "" {
				continue
			}
			if _, ok := seen[seg.CarrierName]; ok {
				continue
			}
			seen[seg.CarrierName] = struct{}{}
			names = append(names, seg.CarrierName)
		}
	}
	add(it.OutboundSegments)
	add(it.ReturnSegments)
	return names
}

// NoResults builds a "nothing found" reply with the searched criteria and
// next-step suggestions.
func (f *Formatter) NoResults(criteria map[string]string, modality models.MessageModality) string {
	if modality == models.ModalityVoice {
		from := criteria["from"]
		if from == "" {
			from = "your origin"
		}
		to := criteria["to"]
		if to == "" {
			to = "your destination"
		}
		return fmt.Sprintf("Sorry, I couldn't find any flights from %s to %s for the selected dates. Would you like to try different dates or destinations?", from, to)
	}

	var sb strings.Builder
	sb.WriteString("❌ *No flights found*\n\n")
	sb.WriteString("We couldn't find any flights matching your criteria:\n")
	for _, key := range []struct{ field, label string }{
		{"from", "From"}, {"to", "To"}, {"date", "Date"}, {"passengers", "Passengers"},
	} {
		if v := criteria[key.field]; v != "" {
			fmt.Fprintf(&sb, "  *%s:* %s\n", key.label, v)
		}
	}
	sb.WriteString("\n💡 *Suggestions:*\n")
	sb.WriteString("• Try different dates\n")
	sb.WriteString("• Check nearby airports\n")
	sb.WriteString("• Consider flexible dates\n")
	sb.WriteString("• Remove carrier preferences")
	return sb.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
