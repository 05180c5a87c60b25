package search

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"
	"github.com/HummdG/taza-ticket-clean/services/dates"
	"github.com/HummdG/taza-ticket-clean/services/flights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher records every request and serves canned itineraries. Prices
// are assigned per call so sorting is observable.
type fakeSearcher struct {
	mu       sync.Mutex
	requests []flights.SearchRequest
	inFlight int
	maxSeen  int

	price  float64
	failOn func(req flights.SearchRequest) bool
}

func (f *fakeSearcher) Search(_ context.Context, req flights.SearchRequest) ([]models.Itinerary, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.requests = append(f.requests, req)
	f.price += 10
	price := f.price
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.failOn != nil && f.failOn(req) {
		return nil, errors.New("pair unavailable")
	}
	return []models.Itinerary{{
		OutboundSegments: []models.FlightSegment{{
			DepartureAirport: req.FromIATA, ArrivalAirport: req.ToIATA,
		}},
		Price: models.PriceBreakdown{Total: price, Currency: "USD"},
	}}, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testDates() *dates.Service {
	return dates.NewService(time.UTC, 1).WithNow(func() time.Time {
		return time.Date(2026, time.August, 10, 12, 0, 0, 0, time.UTC)
	})
}

func searchSlots(from, to []string) models.Slots {
	return models.Slots{
		FromCity:      "origin",
		ToCity:        "destination",
		Date:          "2026-09-12",
		TripType:      models.TripOneWay,
		FromIATACodes: from,
		ToIATACodes:   to,
	}
}

func TestSearchExactDateSinglePair(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	itins, err := s.SearchExactDate(context.Background(), searchSlots([]string{"KHI"}, []string{"DXB"}))
	require.NoError(t, err)
	require.Len(t, itins, 1)
	assert.Equal(t, 1, fake.callCount())
	assert.Equal(t, "KHI", fake.requests[0].FromIATA)

	// Single-pair results carry no airport tags.
	assert.Empty(t, itins[0].OriginAirport)
}

func TestSearchExactDateMissingParams(t *testing.T) {
	s := NewStrategy(&fakeSearcher{}, testDates())

	_, err := s.SearchExactDate(context.Background(), searchSlots(nil, []string{"DXB"}))
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeMissingParams, domainErr.Code)

	noDate := searchSlots([]string{"KHI"}, []string{"DXB"})
	noDate.Date = ""
	_, err = s.SearchExactDate(context.Background(), noDate)
	assert.ErrorAs(t, err, &domainErr)
}

func TestSearchExactDateMultiAirportCap(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	slots := searchSlots(
		[]string{"LHR", "LGW", "STN", "LTN", "LCY", "SEN"},
		[]string{"JFK", "LGA", "EWR"},
	)

	itins, err := s.SearchExactDate(context.Background(), slots)
	require.NoError(t, err)

	// Six origins clamp to three, so at most 3x3 supplier calls.
	assert.Equal(t, 9, fake.callCount())
	assert.LessOrEqual(t, fake.maxSeen, maxConcurrentSearches)

	require.Len(t, itins, 9)
	for _, it := range itins {
		assert.NotEmpty(t, it.OriginAirport)
		assert.NotEmpty(t, it.DestinationAirport)
	}
	assert.True(t, sort.SliceIsSorted(itins, func(i, j int) bool {
		return itins[i].Price.Total < itins[j].Price.Total
	}))
}

func TestSearchMultiAirportPairFailureExcluded(t *testing.T) {
	fake := &fakeSearcher{failOn: func(req flights.SearchRequest) bool {
		return req.FromIATA == "LGW"
	}}
	s := NewStrategy(fake, testDates())

	itins, err := s.SearchExactDate(context.Background(), searchSlots([]string{"LHR", "LGW"}, []string{"DXB"}))
	require.NoError(t, err)
	require.Len(t, itins, 1)
	assert.Equal(t, "LHR", itins[0].OriginAirport)
}

func TestSearchOverDatesTagsAndSorts(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	itins, err := s.SearchOverDates(context.Background(),
		searchSlots([]string{"KHI"}, []string{"DXB"}),
		[]string{"2026-09-12", "2026-09-13", "2026-09-14"}, nil)
	require.NoError(t, err)
	require.Len(t, itins, 3)
	assert.Equal(t, 3, fake.callCount())

	seen := map[string]bool{}
	for _, it := range itins {
		seen[it.SearchDate] = true
		assert.Empty(t, it.SearchReturnDate)
	}
	assert.Len(t, seen, 3)
	assert.True(t, sort.SliceIsSorted(itins, func(i, j int) bool {
		return itins[i].Price.Total < itins[j].Price.Total
	}))
}

func TestSearchOverDatesRoundTripCombinations(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	slots := searchSlots([]string{"KHI"}, []string{"DXB"})
	slots.TripType = models.TripRoundTrip

	itins, err := s.SearchOverDates(context.Background(), slots,
		[]string{"2026-09-12", "2026-09-13"},
		[]string{"2026-09-20", "2026-09-22"})
	require.NoError(t, err)
	assert.Equal(t, 4, fake.callCount())
	require.Len(t, itins, 4)
	for _, it := range itins {
		assert.NotEmpty(t, it.SearchReturnDate)
	}
}

func TestSearchOverDatesEmpty(t *testing.T) {
	s := NewStrategy(&fakeSearcher{}, testDates())

	_, err := s.SearchOverDates(context.Background(), searchSlots([]string{"KHI"}, []string{"DXB"}), nil, nil)
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeNoValidDates, domainErr.Code)
}

func TestSearchMonthPastMonthFails(t *testing.T) {
	s := NewStrategy(&fakeSearcher{}, testDates())

	// July 2026 is entirely in the past relative to the pinned clock.
	_, err := s.SearchMonth(context.Background(), searchSlots([]string{"KHI"}, []string{"DXB"}), time.July, 2026)
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeNoValidDates, domainErr.Code)
}

func TestSearchMonthFlexibleReturns(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	slots := searchSlots([]string{"KHI"}, []string{"DXB"})
	slots.TripType = models.TripRoundTrip

	_, err := s.SearchMonth(context.Background(), slots, time.September, 2026)
	require.NoError(t, err)

	// Every searched combination is a round trip with a proposed return.
	for _, req := range fake.requests {
		assert.NotEmpty(t, req.ReturnDate)
		_, perr := time.Parse("2006-01-02", req.ReturnDate)
		require.NoError(t, perr)
	}
}

func TestFlexibleReturnDatesDeduplicated(t *testing.T) {
	s := NewStrategy(&fakeSearcher{}, testDates())

	// Consecutive outbounds produce overlapping return candidates.
	returns := s.flexibleReturnDates([]string{"2026-09-01", "2026-09-04"})

	seen := map[string]bool{}
	for _, d := range returns {
		assert.False(t, seen[d], "duplicate return date %s", d)
		seen[d] = true
	}
	assert.True(t, sort.StringsAreSorted(returns))
	// 7/10/14 days after each outbound, with one overlap (09-11).
	assert.Len(t, returns, 5)
}

func TestSearchRange(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	itins, err := s.SearchRange(context.Background(),
		searchSlots([]string{"KHI"}, []string{"DXB"}), "2026-09-12", "2026-09-14")
	require.NoError(t, err)
	assert.Equal(t, 3, fake.callCount())
	assert.Len(t, itins, 3)
}

func TestSearchRangeNoValidDates(t *testing.T) {
	s := NewStrategy(&fakeSearcher{}, testDates())

	_, err := s.SearchRange(context.Background(),
		searchSlots([]string{"KHI"}, []string{"DXB"}), "2026-07-01", "2026-07-03")
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeNoValidDates, domainErr.Code)

	_, err = s.SearchRange(context.Background(),
		searchSlots([]string{"KHI"}, []string{"DXB"}), "not-a-date", "2026-09-14")
	assert.ErrorAs(t, err, &domainErr)
}

func TestSearchWithCarrierDoesNotMutateSlots(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	slots := searchSlots([]string{"KHI"}, []string{"DXB"})
	slots.DateSearchType = models.DateSearchExact

	_, err := s.SearchWithCarrier(context.Background(), slots, "PK")
	require.NoError(t, err)
	assert.Empty(t, slots.PreferredCarrier)
	require.NotEmpty(t, fake.requests)
	assert.Equal(t, []string{"PK"}, fake.requests[0].PreferredCarriers)
}

func TestSearchWithCarrierRoutesByDateType(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewStrategy(fake, testDates())

	slots := searchSlots([]string{"KHI"}, []string{"DXB"})
	slots.DateSearchType = models.DateSearchRange
	slots.DateRangeStart = "2026-09-12"
	slots.DateRangeEnd = "2026-09-13"

	_, err := s.SearchWithCarrier(context.Background(), slots, "PK")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount())
}

func TestCheapest(t *testing.T) {
	itins := []models.Itinerary{
		{Price: models.PriceBreakdown{Total: 300}},
		{Price: models.PriceBreakdown{Total: 100}},
		{Price: models.PriceBreakdown{Total: 200}},
		{Price: models.PriceBreakdown{Total: 400}},
	}

	top := Cheapest(itins, 3)
	require.Len(t, top, 3)
	assert.Equal(t, 100.0, top[0].Price.Total)
	assert.Equal(t, 300.0, top[2].Price.Total)

	// The input order is untouched.
	assert.Equal(t, 300.0, itins[0].Price.Total)

	assert.Nil(t, Cheapest(nil, 3))
}

func TestGroupByDate(t *testing.T) {
	itins := []models.Itinerary{
		{SearchDate: "2026-09-12"},
		{SearchDate: "2026-09-13"},
		{SearchDate: "2026-09-12"},
		{},
	}

	groups := GroupByDate(itins)
	require.Len(t, groups, 2)
	assert.Len(t, groups["2026-09-12"], 2)
	assert.Len(t, groups["2026-09-13"], 1)
}
