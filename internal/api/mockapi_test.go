package api_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/device"
	"github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/mockapi"
)

func mockClient(t *testing.T, opts mockapi.Options) *api.Client {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClockAt(time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC))
	}
	srv := httptest.NewServer(mockapi.New(opts).Handler())
	t.Cleanup(srv.Close)
	return api.New(api.Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second})
}

func TestClientAgainstMockAPI(t *testing.T) {
	c := mockClient(t, mockapi.Options{Devices: 7})
	ctx := context.Background()

	roster, err := c.Devices(ctx, "prod", "tenant-1")
	require.NoError(t, err)
	require.Len(t, roster, 7)
	assert.Equal(t, "device-001", device.Reconcile("", roster))

	silent, ok := device.Find(roster, "device-007")
	require.True(t, ok)
	assert.Nil(t, silent.Reading.Humidity)
	assert.Nil(t, silent.OnlineState)

	recent, err := c.RecentSummary(ctx, "prod", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 7, *recent.Total)
	assert.NotNil(t, recent.GeneratedAt)

	drought, err := c.DroughtSummary(ctx, "prod", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, device.DroughtBad, device.ClassifyDrought(&drought))
	assert.Equal(t, "device-003", drought.MaxDeviceID)

	streak, err := c.DroughtStreak(ctx, "prod", "tenant-1", "device-003")
	require.NoError(t, err)
	assert.Equal(t, device.DroughtBad, device.ClassifyStreak(streak.StreakDays))

	m, err := c.Metrics(ctx, "prod", "tenant-1", "device-001", api.MetricsQuery{Bucket: device.BucketWeek})
	require.NoError(t, err)
	assert.Equal(t, device.BucketWeek, m.Bucket)
	assert.NotEmpty(t, m.Humidity())
}

func TestClientAgainstMockAPI_Errors(t *testing.T) {
	c := mockClient(t, mockapi.Options{Fail: []string{api.ResourceRecentSummary}})
	ctx := context.Background()

	_, err := c.DroughtStreak(ctx, "prod", "tenant-1", "device-999")
	require.Error(t, err)
	assert.Equal(t, 404, errors.StatusOf(err))
	assert.Contains(t, err.Error(), "device device-999 not found")

	_, err = c.RecentSummary(ctx, "prod", "tenant-1")
	assert.Equal(t, 503, errors.StatusOf(err))
}
