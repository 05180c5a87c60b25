package airports

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"

	"go.uber.org/zap"
)

// Resolver maps free-text city names to IATA airport codes. The static
// gazetteer is consulted first; unknown cities fall back to the language
// model.
type Resolver interface {
	Resolve(ctx context.Context, cityName string) []string
	ResolveMany(ctx context.Context, cityNames []string) map[string][]string
	CityName(iataCode string) string
	IsMultiAirport(cityName string) bool
	PrimaryAirport(cityName string) string
}

type DefaultResolver struct {
	llm ai.Client
}

func NewResolver(llm ai.Client) *DefaultResolver {
	return &DefaultResolver{llm: llm}
}

// Resolve returns the airport codes for a city. An unresolvable city yields
// an empty slice, never an error; the caller treats that as a slot still
// missing.
func (r *DefaultResolver) Resolve(ctx context.Context, cityName string) []string {
	city := strings.ToLower(strings.TrimSpace(cityName))
	if city == "" {
		return nil
	}

	if codes := lookupStatic(city); codes != nil {
		zap.L().Debug("resolved city via gazetteer", zap.String("city", city), zap.Strings("codes", codes))
		return codes
	}

	codes, err := r.resolveWithLLM(ctx, city)
	if err != nil {
		zap.L().Warn("llm airport resolution failed", zap.String("city", city), zap.Error(err))
		return nil
	}
	if len(codes) == 0 {
		zap.L().Warn("could not resolve city to airport codes", zap.String("city", city))
		return nil
	}
	zap.L().Info("resolved city via llm", zap.String("city", city), zap.Strings("codes", codes))
	return codes
}

func lookupStatic(city string) []string {
	if codes, ok := allCities[city]; ok {
		return codes
	}

	for _, noise := range []string{"city", "airport", "international"} {
		trimmed := strings.TrimSpace(strings.ReplaceAll(city, noise, ""))
		if codes, ok := allCities[trimmed]; ok {
			return codes
		}
	}

	// Containment in either direction catches "greater london" and "nyc
	// area" style phrasing.
	for known, codes := range allCities {
		if strings.Contains(known, city) || strings.Contains(city, known) {
			return codes
		}
	}
	return nil
}

func (r *DefaultResolver) resolveWithLLM(ctx context.Context, city string) ([]string, error) {
	prompt := fmt.Sprintf(`You are an airport code expert. Convert the city name to IATA airport codes.

City: %s

Rules:
1. Return only valid 3-letter IATA codes
2. For cities with multiple airports, list all major ones
3. If you don't know the city or it has no major airport, return "UNKNOWN"
4. Format: comma-separated codes (e.g., "LHR,LGW,STN" for London)

Airport codes for %s:`, city, city)

	resp, err := r.llm.Chat(ctx, ai.ChatRequest{Prompt: prompt, Temperature: 0.1, MaxTokens: 50})
	if err != nil {
		return nil, err
	}

	resp = strings.ToUpper(strings.TrimSpace(resp))
	if resp == "" || resp == "UNKNOWN" {
		return nil, nil
	}

	var codes []string
	for _, part := range strings.Split(resp, ",") {
		code := strings.TrimSpace(part)
		if len(code) == 3 && isAlpha(code) {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ResolveMany resolves several cities concurrently. A failure for one city
// leaves the others intact.
func (r *DefaultResolver) ResolveMany(ctx context.Context, cityNames []string) map[string][]string {
	out := make(map[string][]string, len(cityNames))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range cityNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			codes := r.Resolve(ctx, name)
			mu.Lock()
			out[name] = codes
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return out
}

// CityName does a reverse lookup from an IATA code to a display name.
func (r *DefaultResolver) CityName(iataCode string) string {
	code := strings.ToUpper(strings.TrimSpace(iataCode))
	for city, codes := range allCities {
		for _, c := range codes {
			if c == code {
				return titleCase(city)
			}
		}
	}
	return ""
}

func (r *DefaultResolver) IsMultiAirport(cityName string) bool {
	_, ok := multiAirportCities[strings.ToLower(strings.TrimSpace(cityName))]
	return ok
}

// PrimaryAirport returns the first listed code for a known city.
func (r *DefaultResolver) PrimaryAirport(cityName string) string {
	codes, ok := allCities[strings.ToLower(strings.TrimSpace(cityName))]
	if !ok || len(codes) == 0 {
		return ""
	}
	return codes[0]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
