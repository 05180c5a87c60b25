package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

const monthAlternatives = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	inDurationRe      = regexp.MustCompile(`^in (\d+) (day|days|week|weeks|month|months)$`)
	ordinalDayRe      = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlternatives + `)`)
	monthYearRe       = regexp.MustCompile(`(` + monthAlternatives + `)\s*(\d{2,4})?`)
	dayRangeRe        = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s*[–\-]\s*(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlternatives + `)`)
	monthFirstRangeRe = regexp.MustCompile(`(` + monthAlternatives + `)\s+(\d{1,2})\s*[–\-]\s*(\d{1,2})`)
	numericDateRe     = regexp.MustCompile(`\d{1,4}[/\-]\d{1,2}[/\-]\d{1,4}`)
)

// Service parses natural-language date expressions against a configured
// current time and timezone. Both are injected so parsing is deterministic
// under test.
type Service struct {
	loc *time.Location
	now func() time.Time

	minAdvanceDays int
}

// NewService builds a date parser for the given location. minAdvanceDays is
// the advance-booking threshold applied by IsValidTravelDate.
func NewService(loc *time.Location, minAdvanceDays int) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		loc:            loc,
		now:            time.Now,
		minAdvanceDays: minAdvanceDays,
	}
}

// WithNow fixes the clock. Tests use this to pin "today".
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) current() time.Time {
	return s.now().In(s.loc)
}

// today returns the current calendar date at midnight in the service zone.
func (s *Service) today() time.Time {
	c := s.current()
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, s.loc)
}

func toDateString(t time.Time) string {
	return t.Format(dateLayout)
}

// Parse converts a natural-language date expression into its canonical
// search representation. The boolean result is false when the text could
// not be parsed; callers treat that as "date still missing" rather than an
// error. Recognition order: relative expressions, explicit day ranges,
// month/year mentions, day-first numeric formats, then a generic fallback.
func (s *Service) Parse(text string) (models.DateSearchType, string, string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", "", false
	}

	if d, ok := s.parseRelative(text); ok {
		ds := toDateString(d)
		return models.DateSearchExact, ds, ds, true
	}

	if start, end, ok := s.parseDayRange(text); ok {
		return models.DateSearchRange, toDateString(start), toDateString(end), true
	}

	// An ordinal day before a month name ("24th August") is a single date,
	// not a month mention; check it before the bare month matcher.
	if d, ok := s.parseNumeric(text); ok {
		ds := toDateString(d)
		return models.DateSearchExact, ds, ds, true
	}

	if month, year, ok := s.ParseMonthYear(text); ok {
		start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
		end := start.AddDate(0, 1, -1)
		return models.DateSearchMonth, toDateString(start), toDateString(end), true
	}

	if d, err := dateparse.ParseIn(text, s.loc); err == nil {
		if d.Before(s.today()) {
			d = d.AddDate(1, 0, 0)
		}
		ds := toDateString(d)
		return models.DateSearchExact, ds, ds, true
	}

	zap.L().Debug("could not parse date", zap.String("text", text))
	return "", "", "", false
}

// parseRelative handles "today", "tomorrow", "next friday", "in 3 weeks"
// and similar expressions.
func (s *Service) parseRelative(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	today := s.today()

	switch text {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "day after tomorrow":
		return today.AddDate(0, 0, 2), true
	}

	if rest, ok := strings.CutPrefix(text, "next "); ok {
		switch rest {
		case "week":
			return today.AddDate(0, 0, 7), true
		case "month":
			return today.AddDate(0, 1, 0), true
		}
		if wd, ok := weekdayNames[rest]; ok {
			ahead := int(wd - today.Weekday())
			if ahead <= 0 {
				ahead += 7
			}
			return today.AddDate(0, 0, ahead), true
		}
	}

	if rest, ok := strings.CutPrefix(text, "this "); ok {
		if wd, ok := weekdayNames[rest]; ok {
			ahead := int(wd - today.Weekday())
			if ahead < 0 {
				ahead += 7
			}
			return today.AddDate(0, 0, ahead), true
		}
	}

	if m := inDurationRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "day"):
			return today.AddDate(0, 0, n), true
		case strings.HasPrefix(m[2], "week"):
			return today.AddDate(0, 0, n*7), true
		case strings.HasPrefix(m[2], "month"):
			return today.AddDate(0, n, 0), true
		}
	}

	return time.Time{}, false
}

// parseDayRange handles "12th-16th August" and "August 12-16".
func (s *Service) parseDayRange(text string) (time.Time, time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	today := s.today()

	var startDay, endDay int
	var month time.Month

	if m := dayRangeRe.FindStringSubmatch(text); m != nil {
		startDay, _ = strconv.Atoi(m[1])
		endDay, _ = strconv.Atoi(m[2])
		month = monthNames[m[3]]
	} else if m := monthFirstRangeRe.FindStringSubmatch(text); m != nil {
		month = monthNames[m[1]]
		startDay, _ = strconv.Atoi(m[2])
		endDay, _ = strconv.Atoi(m[3])
	} else {
		return time.Time{}, time.Time{}, false
	}

	year := today.Year()
	if month < today.Month() {
		year++
	}

	start, ok1 := makeDate(year, month, startDay, s.loc)
	end, ok2 := makeDate(year, month, endDay, s.loc)
	if !ok1 || !ok2 {
		return time.Time{}, time.Time{}, false
	}
	if start.Before(today) {
		start = start.AddDate(1, 0, 0)
		end = end.AddDate(1, 0, 0)
	}
	return start, end, true
}

// ParseMonthYear extracts a (month, year) pair from text like "September
// 2026" or "sep 26". A bare month name resolves to its next occurrence.
func (s *Service) ParseMonthYear(text string) (time.Month, int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	m := monthYearRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	month, ok := monthNames[m[1]]
	if !ok {
		return 0, 0, false
	}

	today := s.today()
	year := today.Year()
	if m[2] != "" {
		year, _ = strconv.Atoi(m[2])
		if year < 100 {
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
		}
	} else if month < today.Month() {
		year++
	}
	return month, year, true
}

// parseNumeric handles "24th August" ordinals and day-first numeric formats
// such as 24-08-2026 or 2026-08-24.
func (s *Service) parseNumeric(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	today := s.today()

	if m := ordinalDayRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[m[2]]
		if d, ok := makeDate(today.Year(), month, day, s.loc); ok {
			if d.Before(today) {
				d = d.AddDate(1, 0, 0)
			}
			return d, true
		}
	}

	if m := numericDateRe.FindString(text); m != "" {
		// dateparse prefers month-first for ambiguous input; the service
		// assumes a day-first locale, so swap on the retry.
		d, err := dateparse.ParseIn(m, s.loc, dateparse.PreferMonthFirst(false))
		if err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

// makeDate builds a date and rejects inputs that time.Date would silently
// normalize, e.g. February 30th.
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

// ExpandRange returns the inclusive daily sequence between two YYYY-MM-DD
// dates.
func (s *Service) ExpandRange(startDate, endDate string) ([]string, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation(dateLayout, endDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s precedes start %s", endDate, startDate)
	}

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, toDateString(d))
	}
	return out, nil
}

// MonthDates returns every calendar date in the month, excluding dates
// before today when excludePast is set.
func (s *Service) MonthDates(month time.Month, year int, excludePast bool) []string {
	start := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 1, -1)
	today := s.today()

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if excludePast && d.Before(today) {
			continue
		}
		out = append(out, toDateString(d))
	}
	return out
}

// IsValidTravelDate reports whether the date respects the configured
// minimum advance-booking threshold.
func (s *Service) IsValidTravelDate(dateStr string) bool {
	d, err := time.ParseInLocation(dateLayout, dateStr, s.loc)
	if err != nil {
		return false
	}
	min := s.today().AddDate(0, 0, s.minAdvanceDays)
	return !d.Before(min)
}
