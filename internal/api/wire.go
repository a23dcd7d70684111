package api

import (
	"strings"
	"time"

	"github.com/pvz-iot/pvz/internal/device"
)

// Backend response shapes. Every scalar is a pointer because the backend
// sends null for values it has never seen.

// DeviceState is one roster entry. Timestamps are epoch milliseconds.
type DeviceState struct {
	DeviceID string   `json:"deviceId"`
	Env      string   `json:"env,omitempty"`
	TenantID string   `json:"tenantId,omitempty"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	H        *float64 `json:"h"`
	T        *float64 `json:"t"`
	TsHt     *int64   `json:"tsHt"`
	RSSI     *float64 `json:"rssi"`
	SNR      *float64 `json:"snr"`
	Bat      *float64 `json:"bat"`
	Online   *bool    `json:"online"`
	TsState  *int64   `json:"tsState"`
}

// RecentSummary is the fleet summary over the backend's trailing window.
type RecentSummary struct {
	Env            string   `json:"env,omitempty"`
	TenantID       string   `json:"tenantId,omitempty"`
	WindowSeconds  int      `json:"windowSeconds"`
	GeneratedAt    *int64   `json:"generatedAt,omitempty"`
	TotalDevices   *int     `json:"totalDevices"`
	OnlineDevices  *int     `json:"onlineDevices"`
	OfflineDevices *int     `json:"offlineDevices"`
	AvgTemp        *float64 `json:"avgTemp"`
	AvgHumidity    *float64 `json:"avgHumidity"`
}

// DroughtSummary is the tenant-wide drought count.
type DroughtSummary struct {
	Env              string   `json:"env,omitempty"`
	TenantID         string   `json:"tenantId,omitempty"`
	Threshold        *float64 `json:"threshold"`
	DevicesInDrought int      `json:"devicesInDrought"`
	MaxStreakDays    *float64 `json:"maxStreakDays"`
	MaxDeviceID      *string  `json:"maxDeviceId"`
}

// DroughtStreak is the drought detail for one device.
type DroughtStreak struct {
	Env        string   `json:"env,omitempty"`
	TenantID   string   `json:"tenantId,omitempty"`
	DeviceID   string   `json:"deviceId"`
	Threshold  *float64 `json:"threshold"`
	LastTs     *int64   `json:"lastTs"`
	LastOkTs   *int64   `json:"lastOkTs"`
	StreakDays *float64 `json:"streakDays"`
	LastH      *float64 `json:"lastH"`
}

// MetricsPoint is one aggregated bucket.
type MetricsPoint struct {
	Ts   int64    `json:"ts"` // bucket start, epoch seconds
	TAvg *float64 `json:"tAvg"`
	HAvg *float64 `json:"hAvg"`
}

// DeviceMetrics is a bucketed series. Bucket is HOUR, DAY or WEEK.
type DeviceMetrics struct {
	DeviceID string         `json:"deviceId"`
	Bucket   string         `json:"bucket"`
	Points   []MetricsPoint `json:"points"`
}

// ErrorBody is the backend's error response.
type ErrorBody struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// millis converts a nullable epoch-milliseconds value.
func millis(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v)
	return &t
}

func (s DeviceState) snapshot() device.Snapshot {
	out := device.Snapshot{
		ID: s.DeviceID,
		Reading: device.Reading{
			Temperature: s.T,
			Humidity:    s.H,
			RSSI:        s.RSSI,
			SNR:         s.SNR,
			Battery:     s.Bat,
			TakenAt:     millis(s.TsHt),
		},
		OnlineState:    s.Online,
		StateChangedAt: millis(s.TsState),
	}
	if s.Lat != nil && s.Lon != nil {
		out.Position = &device.Position{Lat: *s.Lat, Lon: *s.Lon}
	}
	return out
}

func (s RecentSummary) view() device.RecentSummary {
	return device.RecentSummary{
		WindowSeconds:  s.WindowSeconds,
		GeneratedAt:    millis(s.GeneratedAt),
		Total:          s.TotalDevices,
		Online:         s.OnlineDevices,
		Offline:        s.OfflineDevices,
		AvgTemperature: s.AvgTemp,
		AvgHumidity:    s.AvgHumidity,
	}
}

func (s DroughtSummary) view() device.DroughtSummary {
	out := device.DroughtSummary{
		DevicesInDrought: s.DevicesInDrought,
		MaxStreakDays:    s.MaxStreakDays,
		Threshold:        s.Threshold,
	}
	if s.MaxDeviceID != nil {
		out.MaxDeviceID = *s.MaxDeviceID
	}
	return out
}

func (s DroughtStreak) view() device.DroughtStreak {
	return device.DroughtStreak{
		DeviceID:     s.DeviceID,
		Threshold:    s.Threshold,
		StreakDays:   s.StreakDays,
		LastHumidity: s.LastH,
		LastAt:       millis(s.LastTs),
		LastOKAt:     millis(s.LastOkTs),
	}
}

// view normalizes the series. requested is used when the backend omits or
// garbles the bucket echo.
func (m DeviceMetrics) view(requested device.Bucket) device.Metrics {
	bucket, ok := device.ParseBucket(strings.ToLower(m.Bucket))
	if !ok {
		bucket = requested
	}
	out := device.Metrics{
		DeviceID: m.DeviceID,
		Bucket:   bucket,
		Points:   make([]device.MetricsPoint, 0, len(m.Points)),
	}
	for _, p := range m.Points {
		out.Points = append(out.Points, device.MetricsPoint{
			At:             time.Unix(p.Ts, 0),
			AvgTemperature: p.TAvg,
			AvgHumidity:    p.HAvg,
		})
	}
	return out
}
