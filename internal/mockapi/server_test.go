package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/api"
)

func testServer(opts Options) http.Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClockAt(autumnNoon)
	}
	return New(opts).Handler()
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestServer_Devices(t *testing.T) {
	h := testServer(Options{})

	var roster []api.DeviceState
	require.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices", &roster))
	require.Len(t, roster, DefaultDevices)
	assert.Equal(t, "device-001", roster[0].DeviceID)
	assert.Equal(t, "prod", roster[0].Env)
	assert.Equal(t, "tenant-1", roster[0].TenantID)
}

func TestServer_Device(t *testing.T) {
	h := testServer(Options{Devices: 2})

	var state api.DeviceState
	require.Equal(t, http.StatusOK, get(t, h, "/api/dev/acme/devices/device-002", &state))
	assert.Equal(t, "device-002", state.DeviceID)
	assert.Equal(t, "acme", state.TenantID)
}

func TestServer_Summaries(t *testing.T) {
	h := testServer(Options{})

	var recent api.RecentSummary
	require.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices/summary/recent", &recent))
	assert.Equal(t, 5, *recent.TotalDevices)
	assert.Equal(t, "tenant-1", recent.TenantID)

	var drought api.DroughtSummary
	require.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices/summary/drought", &drought))
	assert.Equal(t, 1, drought.DevicesInDrought)
	assert.Equal(t, "device-003", *drought.MaxDeviceID)
}

func TestServer_DroughtStreak(t *testing.T) {
	h := testServer(Options{Devices: 7})

	var streak api.DroughtStreak
	require.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices/device-003/drought", &streak))
	assert.Equal(t, 60.0, *streak.StreakDays)

	var body api.ErrorBody
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/prod/tenant-1/devices/device-007/drought", &body),
		"a device without readings has no streak")
}

func TestServer_Metrics(t *testing.T) {
	h := testServer(Options{})

	var m api.DeviceMetrics
	require.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices/device-001/metrics?bucket=HOUR", &m))
	assert.Equal(t, "HOUR", m.Bucket)
	assert.Len(t, m.Points, 24)

	from := autumnNoon.Add(-48 * time.Hour).Unix()
	path := "/api/prod/tenant-1/devices/device-001/metrics?bucket=DAY&from=" +
		strconv.FormatInt(from, 10) + "&to=" + strconv.FormatInt(autumnNoon.Unix(), 10)
	require.Equal(t, http.StatusOK, get(t, h, path, &m))
	assert.Equal(t, "DAY", m.Bucket)
	assert.Len(t, m.Points, 3)
}

func TestServer_MetricsBadRequest(t *testing.T) {
	h := testServer(Options{})

	var body api.ErrorBody
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/prod/tenant-1/devices/device-001/metrics?bucket=MONTH", &body))
	assert.Equal(t, 400, body.Status)
	assert.Contains(t, body.Message, "MONTH")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/prod/tenant-1/devices/device-001/metrics?from=a&to=b", &body))
}

func TestServer_UnknownDevice(t *testing.T) {
	h := testServer(Options{})

	var body api.ErrorBody
	require.Equal(t, http.StatusNotFound, get(t, h, "/api/prod/tenant-1/devices/device-404/metrics", &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "Not Found", body.Error)
	assert.Equal(t, "device device-404 not found", body.Message)
	assert.Equal(t, "/api/prod/tenant-1/devices/device-404/metrics", body.Path)
	assert.NotEmpty(t, body.Timestamp)
}

func TestServer_UnknownRoute(t *testing.T) {
	var body api.ErrorBody
	assert.Equal(t, http.StatusNotFound, get(t, testServer(Options{}), "/nope", &body))
	assert.Equal(t, "no route", body.Message)
}

func TestServer_FaultInjection(t *testing.T) {
	h := testServer(Options{Fail: []string{api.ResourceDroughtSummary}})

	var body api.ErrorBody
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/prod/tenant-1/devices/summary/drought", &body))
	assert.Equal(t, http.StatusOK, get(t, h, "/api/prod/tenant-1/devices/summary/recent", nil))
}

func TestServer_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := testServer(Options{AccessLog: &buf})

	get(t, h, "/health", nil)
	assert.Contains(t, buf.String(), `"GET /health HTTP/1.1" 200`)
}
