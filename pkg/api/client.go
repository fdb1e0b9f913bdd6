package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultMaxRetries    = 3
	defaultRateLimit     = 10.0
	defaultRateBurst     = 5
	defaultRetryBackoff  = 100 * time.Millisecond
	defaultRetrieveLimit = 1000
	defaultUserAgent     = "transformctl"

	requestIDHeader = "X-Request-Id"
)

type (
	// Config configures a Client. BaseURL and Project are required, as is either
	// APIKey or OAuth.
	Config struct {
		// BaseURL is the cluster URL, e.g. https://europe-west1-1.cognitedata.com.
		BaseURL string

		// Project is the project every request is scoped to.
		Project string

		// APIKey is sent in the api-key header when set.
		APIKey string

		// OAuth configures a client-credentials token source when APIKey is empty.
		OAuth *OAuthConfig

		Timeout      time.Duration
		MaxRetries   int
		RetryBackoff time.Duration
		RateLimit    float64
		RateBurst    int
		UserAgent    string

		// RetrieveLimit caps the ids sent in one lookup request.
		RetrieveLimit int

		// Transport replaces the default transport, mostly for tests.
		Transport http.RoundTripper

		Logger *zap.Logger
	}

	// OAuthConfig holds OAuth2 client credentials.
	OAuthConfig struct {
		ClientID     string
		ClientSecret string
		TokenURL     string
		Scopes       []string
		Audience     string
	}

	// Client talks to the transformations API. It paces requests with a token
	// bucket and retries throttled and failed requests with exponential backoff.
	// Calls are safe for concurrent use.
	Client struct {
		config      Config
		projectURL  string
		httpClient  *http.Client
		rateLimiter *rate.Limiter
		log         *zap.Logger
	}

	itemsRequest[T any] struct {
		Items            []T   `json:"items"`
		IgnoreUnknownIDs *bool `json:"ignoreUnknownIds,omitempty"`
	}

	itemsResponse[T any] struct {
		Items      []T    `json:"items"`
		NextCursor string `json:"nextCursor,omitempty"`
	}
)

// NewClient returns a Client for cfg. Zero values take defaults.
//
// Example:
//
//	client, err := api.NewClient(api.Config{
//		BaseURL: "https://europe-west1-1.cognitedata.com",
//		Project: "my-project",
//		APIKey:  os.Getenv("TRANSFORMATIONS_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	existing, err := client.RetrieveTransformations(ctx, []string{"my-transformation"})
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Project == "" {
		return nil, errors.New("project is required")
	}
	if cfg.APIKey == "" && cfg.OAuth == nil {
		return nil, errors.New("either an API key or OAuth credentials are required")
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.RetrieveLimit == 0 {
		cfg.RetrieveLimit = defaultRetrieveLimit
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport := base
	if cfg.APIKey == "" {
		transport = oauthTransport(cfg, base)
	}

	return &Client{
		config:      cfg,
		projectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/api/v1/projects/" + url.PathEscape(cfg.Project),
		httpClient:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		log:         cfg.Logger,
	}, nil
}

func oauthTransport(cfg Config, base http.RoundTripper) http.RoundTripper {
	cc := &clientcredentials.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		TokenURL:     cfg.OAuth.TokenURL,
		Scopes:       cfg.OAuth.Scopes,
	}
	if cfg.OAuth.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {cfg.OAuth.Audience}}
	}

	// Token requests go through the same base transport as API requests.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: base,
	})

	return &oauth2.Transport{
		Source: cc.TokenSource(ctx),
		Base:   base,
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do sends the request, retrying retryable failures, and decodes a successful
// response body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryBackoff << uint(attempt-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter")
		}

		data, err := c.doOnce(ctx, method, path, query, payload)
		if err == nil {
			if out == nil || len(data) == 0 {
				return nil
			}

			return errors.Wrapf(json.Unmarshal(data, out), "failed to decode response from %s", path)
		}

		lastErr = err

		var apiErr *Error
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}

		c.log.Debug("retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("status", apiErr.StatusCode),
		)
	}

	return errors.Wrap(lastErr, "max retries exceeded")
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	fullURL := c.projectURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(requestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("api-key", c.config.APIKey)
	}

	c.log.Debug("sending request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if id := resp.Header.Get(requestIDHeader); id != "" {
			requestID = id
		}
		return nil, decodeError(resp.StatusCode, requestID, data)
	}

	return data, nil
}

func ignoreUnknown(v bool) *bool {
	return &v
}
