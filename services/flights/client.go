package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/HummdG/taza-ticket-clean/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	searchMaxRetries = 3
	tokenLifetime    = 45 * time.Minute
)

// SearchRequest describes a single origin/destination/date query against
// the supplier.
type SearchRequest struct {
	FromIATA          string
	ToIATA            string
	DepartureDate     string
	ReturnDate        string
	Passengers        int
	PreferredCarriers []string
}

// Searcher is the supplier surface the search strategies run against.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]models.Itinerary, error)
}

// Credentials holds the Travelport connection settings.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	AccessGroup  string
	OAuthURL     string
	CatalogURL   string
}

// Client talks to the Travelport JSON API. The OAuth token is cached and
// refreshed ahead of its one-hour lifetime.
type Client struct {
	creds Credentials
	http  *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(creds Credentials) *Client {
	return &Client{
		creds: creds,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	var token string
	op := func() error {
		var err error
		token, err = c.fetchToken(ctx)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), searchMaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}

	c.accessToken = token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	zap.L().Info("obtained travelport access token")
	return c.accessToken, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {c.creds.Username},
		"password":      {c.creds.Password},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"scope":         {"openid"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		zap.L().Error("travelport authentication failed",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return "", backoff.Permanent(&APIError{
			Message:    fmt.Sprintf("authentication failed: %s", string(body)),
			StatusCode: resp.StatusCode,
		})
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", &APIError{Message: "empty access token in response"}
	}
	return tokenResp.AccessToken, nil
}

func (c *Client) requestHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Cache-Control", "no-cache")
	h.Set("Authorization", "Bearer "+token)
	h.Set("Accept-Version", "11")
	h.Set("Content-Version", "11")
	if c.creds.AccessGroup != "" {
		h.Set("XAUTH_TRAVELPORT_ACCESSGROUP", c.creds.AccessGroup)
	}
	return h
}

// Search runs a catalog offerings query and parses the result. Rate limits
// surface as *RateLimitError without retrying; transient failures retry
// with exponential backoff.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]models.Itinerary, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if req.ReturnDate != "" {
		payload = buildRoundTripPayload(req)
	} else {
		payload = buildOneWayPayload(req)
	}

	zap.L().Info("searching flights",
		zap.String("from", req.FromIATA),
		zap.String("to", req.ToIATA),
		zap.String("departure", req.DepartureDate),
		zap.String("return", req.ReturnDate),
		zap.Int("passengers", req.Passengers))

	var result catalogResponse
	op := func() error {
		var err error
		result, err = c.doSearch(ctx, token, payload)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), searchMaxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	return parseOfferings(result), nil
}

func (c *Client) doSearch(ctx context.Context, token string, payload map[string]any) (catalogResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return catalogResponse{}, backoff.Permanent(fmt.Errorf("encode search payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.CatalogURL, bytes.NewReader(body))
	if err != nil {
		return catalogResponse{}, backoff.Permanent(fmt.Errorf("build search request: %w", err))
	}
	req.Header = c.requestHeaders(token)

	resp, err := c.http.Do(req)
	if err != nil {
		return catalogResponse{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<20))

	if resp.StatusCode == http.StatusTooManyRequests {
		return catalogResponse{}, backoff.Permanent(&RateLimitError{Message: "catalog search"})
	}
	if resp.StatusCode != http.StatusOK {
		zap.L().Error("travelport search failed",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return catalogResponse{}, &APIError{
			Message:    fmt.Sprintf("search failed: %s", string(respBody)),
			StatusCode: resp.StatusCode,
		}
	}

	var result catalogResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return catalogResponse{}, backoff.Permanent(fmt.Errorf("decode search response: %w", err))
	}

	// Supplier-declared errors come back in a 200 body; they mean "no
	// offers for this query", not a transport failure.
	if len(result.Response.Result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Response.Result.Errors))
		for _, e := range result.Response.Result.Errors {
			msgs = append(msgs, e.Message)
		}
		zap.L().Warn("travelport api errors", zap.Strings("errors", msgs))
		result.Response.Offerings.Offering = nil
	}

	return result, nil
}
