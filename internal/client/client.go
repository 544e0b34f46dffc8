package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Error string

const (
	ErrNoConnection   = Error("no connection to the control plane")
	ErrUnauthorized   = Error("control plane rejected the API token")
	ErrInvalidProfile = Error("invalid API profile")
	ErrNoEndpoint     = Error("no API endpoint configured")
)

func (e Error) Error() string {
	return string(e)
}

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 15 * time.Second

type Connection interface {
	Config() *ClientConfig
	ConnectionOK() bool
	CheckConnectivity(ctx context.Context) bool
	SwitchProfile(profile string) error
	ActiveProfile() string
	Endpoint() string
	ProfileNames() []string
	GetJSON(ctx context.Context, path string, q url.Values, out any) error
	Stream(ctx context.Context, path string, q url.Values) (io.ReadCloser, error)
}

type ClientConfig struct {
	Profile  string
	Endpoint string
	Token    string
	Timeout  time.Duration

	// MaxInFlight caps concurrent API calls. Zero means no cap.
	MaxInFlight int

	// RequestsPerSecond throttles API calls. Zero means no throttling.
	RequestsPerSecond float64
}

type APIClient struct {
	config   *ClientConfig
	settings ProfileSettings
	http     *http.Client
	stream   *http.Client
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	connOK   bool
	mx       sync.RWMutex
}

// NewAPIClient creates a new APIClient instance with the provided settings and configuration.
func NewAPIClient(settings ProfileSettings, cfg *ClientConfig) (*APIClient, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Profile == "" {
		cfg.Profile = settings.CurrentProfileName()
	}

	c := APIClient{
		config:   cfg,
		settings: settings,
		http:     &http.Client{Timeout: cfg.Timeout},
		stream:   &http.Client{},
	}
	if cfg.MaxInFlight > 0 {
		c.sem = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	return &c, nil
}

// InitConnection creates a client and verifies the control plane answers.
func InitConnection(ctx context.Context, settings ProfileSettings, cfg *ClientConfig) (*APIClient, error) {
	client, err := NewAPIClient(settings, cfg)
	if err != nil {
		return nil, err
	}
	if !client.CheckConnectivity(ctx) {
		return client, ErrNoConnection
	}

	return client, nil
}

// Config returns a copy of the client configuration.
func (c *APIClient) Config() *ClientConfig {
	c.mx.RLock()
	defer c.mx.RUnlock()
	cfg := *c.config
	return &cfg
}

// ConnectionOK returns whether the last connectivity check succeeded.
func (c *APIClient) ConnectionOK() bool {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.connOK
}

// CheckConnectivity pings the API root.
func (c *APIClient) CheckConnectivity(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.Config().Timeout)
	defer cancel()

	resp, err := c.do(ctx, c.http, "/", nil)
	ok := err == nil
	if resp != nil {
		_ = resp.Body.Close()
	}

	c.mx.Lock()
	c.connOK = ok
	c.mx.Unlock()

	return ok
}

// SwitchProfile switches the active API profile.
func (c *APIClient) SwitchProfile(profile string) error {
	if _, err := c.settings.GetProfile(profile); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, profile)
	}
	if err := c.settings.SetActiveProfile(profile); err != nil {
		return err
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.config.Profile = profile
	c.config.Endpoint, c.config.Token = "", ""
	c.connOK = false

	return nil
}

// ActiveProfile returns the name of the active profile.
func (c *APIClient) ActiveProfile() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.config.Profile
}

// Endpoint returns the API base URL for the active profile.
func (c *APIClient) Endpoint() string {
	endpoint, _ := c.credentials()
	return endpoint
}

// ProfileNames returns all known profile names.
func (c *APIClient) ProfileNames() []string {
	return c.settings.ProfileNames()
}

// GetJSON issues a GET and decodes the JSON body into out.
func (c *APIClient) GetJSON(ctx context.Context, path string, q url.Values, out any) error {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer c.sem.Release(1)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := c.do(ctx, c.http, path, q)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := gojson.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// Stream issues a long lived GET. The caller must close the body.
func (c *APIClient) Stream(ctx context.Context, path string, q url.Values) (io.ReadCloser, error) {
	resp, err := c.do(ctx, c.stream, path, q, "Accept", "text/event-stream")
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (c *APIClient) credentials() (string, string) {
	c.mx.RLock()
	endpoint, token, profile := c.config.Endpoint, c.config.Token, c.config.Profile
	c.mx.RUnlock()

	if endpoint != "" && token != "" {
		return endpoint, token
	}
	if p, err := c.settings.GetProfile(profile); err == nil {
		if endpoint == "" {
			endpoint = p.Endpoint
		}
		if token == "" {
			token = p.Token
		}
	}

	return strings.TrimRight(endpoint, "/"), token
}

func (c *APIClient) do(ctx context.Context, hc *http.Client, path string, q url.Values, headers ...string) (*http.Response, error) {
	endpoint, token := c.credentials()
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	u := endpoint + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(path, resp)
	}

	return resp, nil
}

func statusError(path string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: GET %s (%s)", ErrUnauthorized, path, resp.Status)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("GET %s failed: %s (%s)", path, msg, resp.Status)
	}

	return fmt.Errorf("GET %s failed: %s", path, resp.Status)
}
