package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/dates"
	"github.com/HummdG/taza-ticket-clean/services/flights"

	"go.uber.org/zap"
)

const (
	// maxConcurrentSearches bounds parallel supplier calls across any
	// fan-out.
	maxConcurrentSearches = 5
	// maxAirportsPerSide caps multi-airport combinations so a metro pair
	// never exceeds nine queries.
	maxAirportsPerSide = 3
)

// Error is a search-domain failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeMissingParams = "missing_search_params"
	CodeNoValidDates  = "no_valid_dates"
	CodeSearchFailed  = "search_failed"
)

// Strategy fans individual supplier queries out across airports and dates.
type Strategy struct {
	searcher flights.Searcher
	dates    *dates.Service
}

func NewStrategy(searcher flights.Searcher, dateSvc *dates.Service) *Strategy {
	return &Strategy{searcher: searcher, dates: dateSvc}
}

// SearchExactDate searches a single calendar date. Metro areas with several
// airports fan out over the capped combination grid; a single pair issues
// exactly one supplier call.
func (s *Strategy) SearchExactDate(ctx context.Context, slots models.Slots) ([]models.Itinerary, error) {
	if len(slots.FromIATACodes) == 0 || len(slots.ToIATACodes) == 0 || slots.Date == "" {
		return nil, &Error{Code: CodeMissingParams, Message: "origin, destination and date are required"}
	}

	if len(slots.FromIATACodes) == 1 && len(slots.ToIATACodes) == 1 {
		itins, err := s.searcher.Search(ctx, requestFromSlots(slots, slots.FromIATACodes[0], slots.ToIATACodes[0]))
		if err != nil {
			return nil, &Error{Code: CodeSearchFailed, Message: err.Error()}
		}
		return itins, nil
	}

	return s.searchMultiAirport(ctx, slots), nil
}

func requestFromSlots(slots models.Slots, from, to string) flights.SearchRequest {
	var carriers []string
	if slots.PreferredCarrier != "" {
		carriers = []string{slots.PreferredCarrier}
	}
	return flights.SearchRequest{
		FromIATA:          from,
		ToIATA:            to,
		DepartureDate:     slots.Date,
		ReturnDate:        slots.ReturnDate,
		Passengers:        slots.PassengerCount(),
		PreferredCarriers: carriers,
	}
}

type airportPair struct {
	from, to string
}

// searchMultiAirport queries every origin/destination combination. A failed
// pair is logged and excluded; it never sinks the other pairs.
func (s *Strategy) searchMultiAirport(ctx context.Context, slots models.Slots) []models.Itinerary {
	origins := slots.FromIATACodes
	if len(origins) > maxAirportsPerSide {
		origins = origins[:maxAirportsPerSide]
	}
	destinations := slots.ToIATACodes
	if len(destinations) > maxAirportsPerSide {
		destinations = destinations[:maxAirportsPerSide]
	}

	zap.L().Info("searching airport combinations",
		zap.Int("origins", len(origins)), zap.Int("destinations", len(destinations)))

	var pairs []airportPair
	for _, from := range origins {
		for _, to := range destinations {
			pairs = append(pairs, airportPair{from: from, to: to})
		}
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []models.Itinerary
		sem = make(chan struct{}, maxConcurrentSearches)
	)

	for _, pair := range pairs {
		wg.Add(1)
		go func(pair airportPair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			itins, err := s.searcher.Search(ctx, requestFromSlots(slots, pair.from, pair.to))
			if err != nil {
				zap.L().Warn("airport pair search failed",
					zap.String("from", pair.from), zap.String("to", pair.to), zap.Error(err))
				return
			}
			for i := range itins {
				itins[i].OriginAirport = pair.from
				itins[i].DestinationAirport = pair.to
			}

			mu.Lock()
			all = append(all, itins...)
			mu.Unlock()
		}(pair)
	}
	wg.Wait()

	sortByPrice(all)
	zap.L().Info("multi-airport search complete", zap.Int("itineraries", len(all)))
	return all
}

// SearchOverDates runs the exact-date search for every date combination and
// merges the results cheapest-first. Each itinerary is tagged with the
// dates it was found under.
func (s *Strategy) SearchOverDates(ctx context.Context, slots models.Slots, outboundDates, returnDates []string) ([]models.Itinerary, error) {
	if len(slots.FromIATACodes) == 0 || len(slots.ToIATACodes) == 0 {
		return nil, &Error{Code: CodeMissingParams, Message: "origin and destination are required"}
	}
	if len(outboundDates) == 0 {
		return nil, &Error{Code: CodeNoValidDates, Message: "no outbound dates to search"}
	}

	type dateCombo struct {
		outbound, ret string
	}
	var combos []dateCombo
	if slots.TripType == models.TripRoundTrip && len(returnDates) > 0 {
		for _, out := range outboundDates {
			for _, ret := range returnDates {
				combos = append(combos, dateCombo{outbound: out, ret: ret})
			}
		}
	} else {
		for _, out := range outboundDates {
			ret := ""
			if slots.TripType == models.TripRoundTrip {
				ret = slots.ReturnDate
			}
			combos = append(combos, dateCombo{outbound: out, ret: ret})
		}
	}

	zap.L().Info("searching date combinations", zap.Int("combinations", len(combos)))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []models.Itinerary
		sem = make(chan struct{}, maxConcurrentSearches)
	)

	for _, combo := range combos {
		wg.Add(1)
		go func(combo dateCombo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			searchSlots := slots.Clone()
			searchSlots.Date = combo.outbound
			searchSlots.ReturnDate = combo.ret

			itins, err := s.SearchExactDate(ctx, searchSlots)
			if err != nil {
				zap.L().Warn("date combination search failed",
					zap.String("outbound", combo.outbound), zap.String("return", combo.ret), zap.Error(err))
				return
			}
			for i := range itins {
				itins[i].SearchDate = combo.outbound
				if combo.ret != "" {
					itins[i].SearchReturnDate = combo.ret
				}
			}

			mu.Lock()
			all = append(all, itins...)
			mu.Unlock()
		}(combo)
	}
	wg.Wait()

	sortByPrice(all)
	zap.L().Info("date fan-out complete", zap.Int("itineraries", len(all)))
	return all, nil
}

// SearchMonth finds the cheapest options across every remaining valid date
// in a month. Flexible round trips try returns 7, 10 and 14 days after each
// outbound.
func (s *Strategy) SearchMonth(ctx context.Context, slots models.Slots, month time.Month, year int) ([]models.Itinerary, error) {
	zap.L().Info("searching month", zap.Int("month", int(month)), zap.Int("year", year))

	monthDates := s.dates.MonthDates(month, year, true)
	if len(monthDates) == 0 {
		return nil, &Error{
			Code:    CodeNoValidDates,
			Message: fmt.Sprintf("no valid travel dates in %d/%d", month, year),
		}
	}

	var returnDates []string
	if slots.TripType == models.TripRoundTrip {
		if slots.ReturnDate != "" {
			returnDates = []string{slots.ReturnDate}
		} else {
			returnDates = s.flexibleReturnDates(monthDates)
		}
	}

	return s.SearchOverDates(ctx, slots, monthDates, returnDates)
}

// flexibleReturnDates proposes returns 7, 10 and 14 days after each
// outbound, deduplicated and sorted.
func (s *Strategy) flexibleReturnDates(outboundDates []string) []string {
	seen := make(map[string]struct{})
	for _, out := range outboundDates {
		d, err := time.Parse("2006-01-02", out)
		if err != nil {
			continue
		}
		for _, daysLater := range []int{7, 10, 14} {
			ret := d.AddDate(0, 0, daysLater).Format("2006-01-02")
			if s.dates.IsValidTravelDate(ret) {
				seen[ret] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// SearchRange searches every valid date between start and end inclusive.
func (s *Strategy) SearchRange(ctx context.Context, slots models.Slots, startDate, endDate string) ([]models.Itinerary, error) {
	zap.L().Info("searching date range", zap.String("start", startDate), zap.String("end", endDate))

	expanded, err := s.dates.ExpandRange(startDate, endDate)
	if err != nil {
		return nil, &Error{Code: CodeNoValidDates, Message: err.Error()}
	}

	var valid []string
	for _, d := range expanded {
		if s.dates.IsValidTravelDate(d) {
			valid = append(valid, d)
		}
	}
	if len(valid) == 0 {
		return nil, &Error{
			Code:    CodeNoValidDates,
			Message: fmt.Sprintf("no valid travel dates in range %s to %s", startDate, endDate),
		}
	}

	var returnDates []string
	if slots.TripType == models.TripRoundTrip && slots.ReturnDate != "" {
		returnDates = []string{slots.ReturnDate}
	}

	return s.SearchOverDates(ctx, slots, valid, returnDates)
}

// SearchWithCarrier reruns the slots' search with a carrier preference. The
// caller's slots are not mutated.
func (s *Strategy) SearchWithCarrier(ctx context.Context, slots models.Slots, carrierCode string) ([]models.Itinerary, error) {
	zap.L().Info("searching with carrier filter", zap.String("carrier", carrierCode))

	filtered := slots.Clone()
	filtered.PreferredCarrier = carrierCode

	switch slots.DateSearchType {
	case models.DateSearchMonth:
		if start, err := time.Parse("2006-01-02", slots.DateRangeStart); err == nil {
			return s.SearchMonth(ctx, filtered, start.Month(), start.Year())
		}
	case models.DateSearchRange:
		return s.SearchRange(ctx, filtered, slots.DateRangeStart, slots.DateRangeEnd)
	}

	return s.SearchExactDate(ctx, filtered)
}

// Cheapest returns up to limit itineraries ordered by total price.
func Cheapest(itineraries []models.Itinerary, limit int) []models.Itinerary {
	if len(itineraries) == 0 {
		return nil
	}

	sorted := make([]models.Itinerary, len(itineraries))
	copy(sorted, itineraries)
	sortByPrice(sorted)

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// GroupByDate buckets itineraries by the outbound date they were searched
// under. Untagged itineraries are omitted.
func GroupByDate(itineraries []models.Itinerary) map[string][]models.Itinerary {
	groups := make(map[string][]models.Itinerary)
	for _, it := range itineraries {
		if it.SearchDate == "" {
			continue
		}
		groups[it.SearchDate] = append(groups[it.SearchDate], it)
	}
	return groups
}

func sortByPrice(itineraries []models.Itinerary) {
	sort.SliceStable(itineraries, func(i, j int) bool {
		return itineraries[i].Price.Total < itineraries[j].Price.Total
	})
}
