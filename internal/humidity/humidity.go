package humidity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultFallback = 55
	DefaultTimeout  = 5 * time.Second
	DefaultBaseURL  = "http://api.openweathermap.org/data/2.5/weather"
)

// Source supplies a relative humidity percentage. Implementations never
// return an error; they fall back to a fixed value instead.
type Source interface {
	Fetch(ctx context.Context) int
}

// Static always reports the same humidity.
type Static int

func (s Static) Fetch(context.Context) int {
	return int(s)
}

// Client looks up the current humidity for a city from OpenWeatherMap.
type Client struct {
	http     *http.Client
	baseURL  string
	city     string
	apiKey   string
	fallback int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithFallback(v int) Option {
	return func(c *Client) { c.fallback = v }
}

func NewClient(city, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		baseURL:  DefaultBaseURL,
		city:     city,
		apiKey:   apiKey,
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type weatherResponse struct {
	Main struct {
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
}

// Fetch returns the reported humidity, or the fallback on any failure.
func (c *Client) Fetch(ctx context.Context) int {
	h, err := c.fetch(ctx)
	if err != nil {
		log.Debug().Err(err).Int("fallback", c.fallback).Msg("Humidity lookup failed, using fallback")
		return c.fallback
	}
	return h
}

func (c *Client) fetch(ctx context.Context) (int, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid humidity url: %w", err)
	}
	q := u.Query()
	q.Set("q", c.city)
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Main.Humidity == nil {
		return 0, fmt.Errorf("response has no main.humidity")
	}

	h := int(*body.Main.Humidity)
	if h < 0 || h > 100 {
		return 0, fmt.Errorf("humidity %d out of range", h)
	}

	log.Debug().Str("city", c.city).Int("humidity", h).Msg("Humidity fetched")
	return h, nil
}

// Cache holds the last fetched humidity so the control loop never waits on
// the network. Prime it once at startup; Run refreshes it periodically.
type Cache struct {
	source Source
	value  atomic.Int64
}

func NewCache(source Source, initial int) *Cache {
	c := &Cache{source: source}
	c.value.Store(int64(initial))
	return c
}

func (c *Cache) Prime(ctx context.Context) int {
	v := c.source.Fetch(ctx)
	c.value.Store(int64(v))
	log.Info().Int("humidity", v).Msg("Humidity primed")
	return v
}

func (c *Cache) Value() int {
	return int(c.value.Load())
}

// Run refreshes the cached value every interval until ctx is done. A zero
// interval keeps the primed value for the life of the process.
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v := c.source.Fetch(ctx)
			c.value.Store(int64(v))
			log.Debug().Int("humidity", v).Msg("Humidity refreshed")
		}
	}
}
