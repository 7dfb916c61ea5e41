// Package sunrise — клиент внешнего API восхода и заката (sunrise-sunset.org).
package sunrise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/dvs/internal/lib/metrics"
)

// ErrBadStatus возвращается, когда API ответил статусом, отличным от OK.
var ErrBadStatus = errors.New("sunrise api returned non-OK status")

// Client обращается к API восхода/заката.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для baseURL с таймаутом запроса timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, date string, lat, lng float64) (*http.Request, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("date", date)
	q.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Fetch запрашивает восход и закат для даты YYYY-MM-DD в точке lat/lng.
func (c *Client) Fetch(ctx context.Context, date string, lat, lng float64) (*Result, error) {
	const op = "sunrise.Fetch"
	res, err := c.fetch(ctx, date, lat, lng)
	if err != nil {
		metrics.SunriseRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SunriseRequests.WithLabelValues("ok").Inc()
	return res, nil
}

func (c *Client) fetch(ctx context.Context, date string, lat, lng float64) (*Result, error) {
	req, err := c.newRequest(ctx, date, lat, lng)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, body.Status)
	}

	return &Result{
		Date:      date,
		Sunrise:   body.Results.Sunrise.UTC(),
		Sunset:    body.Results.Sunset.UTC(),
		DayLength: time.Duration(body.Results.DayLength) * time.Second,
	}, nil
}
