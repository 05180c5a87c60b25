package airports

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	ai "github.com/HummdG/taza-ticket-clean/services/intelligence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
	calls int32
}

func (f *fakeLLM) Chat(_ context.Context, _ ai.ChatRequest) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.reply, f.err
}

func (f *fakeLLM) DetectLanguage(_ context.Context, _ string) (string, error) {
	return "en", nil
}

func TestResolveStaticMapping(t *testing.T) {
	llm := &fakeLLM{}
	r := NewResolver(llm)
	ctx := context.Background()

	assert.Equal(t, []string{"LHR", "LGW", "STN", "LTN", "LCY", "SEN"}, r.Resolve(ctx, "London"))
	assert.Equal(t, []string{"KHI"}, r.Resolve(ctx, "  karachi "))
	assert.Equal(t, []string{"DXB", "DWC"}, r.Resolve(ctx, "Dubai"))

	// Known cities never reach the language model.
	assert.Zero(t, atomic.LoadInt32(&llm.calls))
}

func TestResolveStripsNoiseWords(t *testing.T) {
	r := NewResolver(&fakeLLM{})
	ctx := context.Background()

	assert.Equal(t, []string{"MEX"}, r.Resolve(ctx, "mexico city"))
	assert.Equal(t, []string{"LHE"}, r.Resolve(ctx, "lahore airport"))
	assert.Equal(t, []string{"ISB"}, r.Resolve(ctx, "islamabad international"))
}

func TestResolveContainment(t *testing.T) {
	r := NewResolver(&fakeLLM{})

	assert.Equal(t, []string{"LHR", "LGW", "STN", "LTN", "LCY", "SEN"},
		r.Resolve(context.Background(), "greater london"))
}

func TestResolveLLMFallback(t *testing.T) {
	llm := &fakeLLM{reply: "xyz, ABC, TOOLONG, A1B, def"}
	r := NewResolver(llm)

	codes := r.Resolve(context.Background(), "smalltown")
	assert.Equal(t, []string{"XYZ", "ABC", "DEF"}, codes)
	assert.EqualValues(t, 1, atomic.LoadInt32(&llm.calls))
}

func TestResolveUnknownReturnsEmpty(t *testing.T) {
	cases := []*fakeLLM{
		{reply: "UNKNOWN"},
		{reply: ""},
		{err: errors.New("model unavailable")},
	}
	for _, llm := range cases {
		r := NewResolver(llm)
		assert.Empty(t, r.Resolve(context.Background(), "atlantis"))
	}

	r := NewResolver(&fakeLLM{})
	assert.Empty(t, r.Resolve(context.Background(), ""))
	assert.Empty(t, r.Resolve(context.Background(), "   "))
}

func TestResolveMany(t *testing.T) {
	r := NewResolver(&fakeLLM{reply: "UNKNOWN"})

	got := r.ResolveMany(context.Background(), []string{"london", "karachi", "atlantis"})
	require.Len(t, got, 3)
	assert.Len(t, got["london"], 6)
	assert.Equal(t, []string{"KHI"}, got["karachi"])
	assert.Empty(t, got["atlantis"])
}

func TestCityName(t *testing.T) {
	r := NewResolver(&fakeLLM{})

	assert.Equal(t, "London", r.CityName("lhr"))
	assert.Equal(t, "New York", r.CityName("JFK"))
	assert.Equal(t, "", r.CityName("ZZZ"))
}

func TestIsMultiAirportAndPrimary(t *testing.T) {
	r := NewResolver(&fakeLLM{})

	assert.True(t, r.IsMultiAirport("London"))
	assert.False(t, r.IsMultiAirport("karachi"))
	assert.Equal(t, "LHR", r.PrimaryAirport("london"))
	assert.Equal(t, "KHI", r.PrimaryAirport("Karachi"))
	assert.Equal(t, "", r.PrimaryAirport("atlantis"))
}
