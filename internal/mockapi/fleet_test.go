package mockapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/device"
)

var autumnNoon = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func TestFleet_IDs(t *testing.T) {
	f := NewFleet(3, autumnNoon)
	assert.Equal(t, []string{"device-001", "device-002", "device-003"}, f.IDs())

	i, ok := f.Index("device-002")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = f.Index("device-004")
	assert.False(t, ok)

	assert.Empty(t, NewFleet(-1, autumnNoon).IDs())
}

func TestFleet_Deterministic(t *testing.T) {
	a := NewFleet(5, autumnNoon)
	b := NewFleet(5, autumnNoon)
	assert.Equal(t, a.Roster(autumnNoon), b.Roster(autumnNoon))
	assert.Equal(t, a.DroughtSummary(autumnNoon), b.DroughtSummary(autumnNoon))
}

func TestFleet_Roster(t *testing.T) {
	f := NewFleet(7, autumnNoon.Add(-time.Hour))
	roster := f.Roster(autumnNoon)
	require.Len(t, roster, 7)

	first := roster[0]
	assert.Equal(t, "device-001", first.DeviceID)
	assert.Equal(t, BaseLat, *first.Lat)
	assert.Equal(t, BaseLon, *first.Lon)
	assert.True(t, *first.Online)
	assert.Equal(t, autumnNoon.UnixMilli(), *first.TsHt)

	assert.False(t, *roster[3].Online, "device-004 is offline")

	silentDevice := roster[6]
	assert.NotNil(t, silentDevice.Lat)
	assert.Nil(t, silentDevice.H)
	assert.Nil(t, silentDevice.Online)
	assert.Nil(t, silentDevice.TsHt)
}

func TestFleet_HumidityBounds(t *testing.T) {
	f := NewFleet(5, autumnNoon)
	for i := 0; i < 5; i++ {
		for h := 0; h < 24*365; h += 13 {
			v := f.Humidity(i, autumnNoon.Add(time.Duration(h)*time.Hour))
			assert.GreaterOrEqual(t, v, 5.0)
			assert.LessOrEqual(t, v, 98.0)
		}
	}
}

func TestFleet_Drought(t *testing.T) {
	f := NewFleet(5, autumnNoon)

	dry, ok := f.DroughtStreak(2, autumnNoon)
	require.True(t, ok)
	assert.Equal(t, 60.0, *dry.StreakDays, "device-003 has been dry since summer")
	assert.Nil(t, dry.LastOkTs)

	wet, ok := f.DroughtStreak(0, autumnNoon)
	require.True(t, ok)
	assert.Equal(t, 0.0, *wet.StreakDays)
	assert.Equal(t, autumnNoon.UnixMilli(), *wet.LastOkTs)

	s := f.DroughtSummary(autumnNoon)
	assert.Equal(t, 1, s.DevicesInDrought)
	assert.Equal(t, 60.0, *s.MaxStreakDays)
	assert.Equal(t, "device-003", *s.MaxDeviceID)

	view := device.DroughtSummary{DevicesInDrought: s.DevicesInDrought, MaxStreakDays: s.MaxStreakDays}
	assert.Equal(t, device.DroughtBad, device.ClassifyDrought(&view))
}

func TestFleet_RecentSummary(t *testing.T) {
	f := NewFleet(7, autumnNoon)
	s := f.RecentSummary(autumnNoon)

	assert.Equal(t, 600, s.WindowSeconds)
	assert.Equal(t, 7, *s.TotalDevices)
	assert.Equal(t, 5, *s.OnlineDevices, "device-004 is offline and device-007 unknown")
	assert.Equal(t, 2, *s.OfflineDevices)
	require.NotNil(t, s.AvgHumidity)
	require.NotNil(t, s.AvgTemp)

	empty := NewFleet(0, autumnNoon).RecentSummary(autumnNoon)
	assert.Equal(t, 0, *empty.TotalDevices)
	assert.Nil(t, empty.AvgHumidity, "no data is not zero")
}

func TestFleet_Metrics(t *testing.T) {
	f := NewFleet(5, autumnNoon)

	tests := []struct {
		bucket device.Bucket
		points int
	}{
		{device.BucketHour, 24},
		{device.BucketDay, 30},
		{device.BucketWeek, 26},
	}
	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			m := f.Metrics(0, tt.bucket, time.Time{}, time.Time{}, autumnNoon)
			assert.Equal(t, tt.bucket.Wire(), m.Bucket)
			// The truncated start can add one leading bucket.
			assert.GreaterOrEqual(t, len(m.Points), tt.points)
			assert.LessOrEqual(t, len(m.Points), tt.points+1)
			for i := 1; i < len(m.Points); i++ {
				assert.Greater(t, m.Points[i].Ts, m.Points[i-1].Ts)
			}
		})
	}

	from := autumnNoon.Add(-3 * time.Hour)
	m := f.Metrics(0, device.BucketHour, from, autumnNoon, autumnNoon)
	require.Len(t, m.Points, 3)
	assert.Equal(t, from.Unix(), m.Points[0].Ts)
}
