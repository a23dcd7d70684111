// Package api is the typed client for the sensor backend. Each operation
// maps one backend resource onto the view types in package device and
// reports failures as structured errors: ErrNetwork when the request could
// not be made, ErrTransport for a non-2xx status and ErrDecode for a body
// that does not parse. Nothing here retries; the next poll does.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/logger"
	"github.com/pvz-iot/pvz/internal/observability"
)

// Resource names used in errors, logs and metric labels.
const (
	ResourceDevices        = "devices"
	ResourceRecentSummary  = "recent summary"
	ResourceDroughtSummary = "drought summary"
	ResourceDroughtStreak  = "drought streak"
	ResourceMetrics        = "metrics"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// errorBodyLimit caps how much of a failed response is read for its message.
const errorBodyLimit = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL    string        // e.g. http://localhost:8080/api
	Token      string        // optional bearer token
	Timeout    time.Duration // per request; 0 means no client-side timeout
	HTTPClient *http.Client  // overrides Timeout when set
	Metrics    *observability.Metrics
	Logger     logger.Logger
}

// Client fetches fleet state from the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
	log        logger.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: httpClient,
		metrics:    opts.Metrics,
		log:        log,
	}
}

// Devices returns the roster in backend order.
func (c *Client) Devices(ctx context.Context, env, tenant string) ([]device.Snapshot, error) {
	var states []DeviceState
	if err := c.get(ctx, ResourceDevices, c.tenantPath(env, tenant), nil, &states); err != nil {
		return nil, err
	}
	roster := make([]device.Snapshot, 0, len(states))
	for _, s := range states {
		roster = append(roster, s.snapshot())
	}
	return roster, nil
}

// RecentSummary returns the fleet summary over the backend's trailing window.
func (c *Client) RecentSummary(ctx context.Context, env, tenant string) (device.RecentSummary, error) {
	var body RecentSummary
	if err := c.get(ctx, ResourceRecentSummary, c.tenantPath(env, tenant, "summary", "recent"), nil, &body); err != nil {
		return device.RecentSummary{}, err
	}
	return body.view(), nil
}

// DroughtSummary returns how many devices are in drought and the longest streak.
func (c *Client) DroughtSummary(ctx context.Context, env, tenant string) (device.DroughtSummary, error) {
	var body DroughtSummary
	if err := c.get(ctx, ResourceDroughtSummary, c.tenantPath(env, tenant, "summary", "drought"), nil, &body); err != nil {
		return device.DroughtSummary{}, err
	}
	return body.view(), nil
}

// DroughtStreak returns the drought detail for one device. The backend
// answers 404 for a device it has no streak record for.
func (c *Client) DroughtStreak(ctx context.Context, env, tenant, deviceID string) (device.DroughtStreak, error) {
	var body DroughtStreak
	if err := c.get(ctx, ResourceDroughtStreak, c.tenantPath(env, tenant, deviceID, "drought"), nil, &body); err != nil {
		return device.DroughtStreak{}, err
	}
	return body.view(), nil
}

// MetricsQuery selects a metrics series. A zero From or To leaves the range
// to the backend, which then uses the bucket's default span ending now.
type MetricsQuery struct {
	Bucket device.Bucket
	From   time.Time
	To     time.Time
}

// Metrics returns the bucketed temperature and humidity series for a device.
func (c *Client) Metrics(ctx context.Context, env, tenant, deviceID string, q MetricsQuery) (device.Metrics, error) {
	bucket := q.Bucket
	if bucket == "" {
		bucket = device.BucketHour
	}
	params := url.Values{"bucket": {bucket.Wire()}}
	if !q.From.IsZero() && !q.To.IsZero() {
		params.Set("from", strconv.FormatInt(q.From.Unix(), 10))
		params.Set("to", strconv.FormatInt(q.To.Unix(), 10))
	}

	var body DeviceMetrics
	if err := c.get(ctx, ResourceMetrics, c.tenantPath(env, tenant, deviceID, "metrics"), params, &body); err != nil {
		return device.Metrics{}, err
	}
	m := body.view(bucket)
	if m.DeviceID == "" {
		m.DeviceID = deviceID
	}
	return m, nil
}

// tenantPath builds {base}/{env}/{tenant}/devices[/seg...] with every
// segment escaped.
func (c *Client) tenantPath(env, tenant string, segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, seg := range append([]string{env, tenant, "devices"}, segments...) {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

func (c *Client) get(ctx context.Context, resource, fullURL string, params url.Values, out any) error {
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.ObserveRequest(resource, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		outcome = "network"
		return errors.Network(resource, fmt.Errorf("create request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("GET %s (request %s)", fullURL, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network"
		c.log.Debug("%s request %s failed: %v", resource, requestID, err)
		return errors.Network(resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "transport"
		detail := errorDetail(io.LimitReader(resp.Body, errorBodyLimit))
		c.log.Debug("%s request %s: status %d %s", resource, requestID, resp.StatusCode, detail)
		return errors.Transport(resource, resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode"
		return errors.Decode(resource, err)
	}
	return nil
}

// errorDetail extracts the backend's message from an error body. Bodies
// that are not an ErrorBody yield their trimmed text.
func errorDetail(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body ErrorBody
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
