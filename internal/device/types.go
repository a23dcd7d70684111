// Package device holds the sensor fleet view models and the pure rules
// derived from them: drought classification and selection reconciliation.
package device

import (
	"strings"
	"time"
)

// Position is a device location in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Reading is the most recent measurement set reported by a device.
// A nil field means the device has not reported that value, which is
// different from a zero reading.
type Reading struct {
	Temperature *float64 // °C
	Humidity    *float64 // %
	RSSI        *float64 // dBm
	SNR         *float64 // dB
	Battery     *float64 // V
	TakenAt     *time.Time
}

// Snapshot is one device as reported by a single roster poll. A new poll
// replaces the whole roster; snapshots are never patched field by field.
type Snapshot struct {
	ID             string
	Position       *Position
	Reading        Reading
	OnlineState    *bool
	StateChangedAt *time.Time
}

// Online reports whether the device is known to be online. Unknown state
// counts as offline.
func (s Snapshot) Online() bool {
	return s.OnlineState != nil && *s.OnlineState
}

// LastSeen returns the later of the reading and state-change timestamps.
func (s Snapshot) LastSeen() (time.Time, bool) {
	var last time.Time
	if s.Reading.TakenAt != nil {
		last = *s.Reading.TakenAt
	}
	if s.StateChangedAt != nil && s.StateChangedAt.After(last) {
		last = *s.StateChangedAt
	}
	return last, !last.IsZero()
}

// IDs returns the roster ids in backend order.
func IDs(roster []Snapshot) []string {
	ids := make([]string, len(roster))
	for i, s := range roster {
		ids[i] = s.ID
	}
	return ids
}

// Find returns the snapshot with the given id.
func Find(roster []Snapshot, id string) (Snapshot, bool) {
	for _, s := range roster {
		if s.ID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// RecentSummary aggregates the fleet over the backend's trailing window.
// Each counter is independently nullable.
type RecentSummary struct {
	WindowSeconds  int
	GeneratedAt    *time.Time
	Total          *int
	Online         *int
	Offline        *int
	AvgTemperature *float64
	AvgHumidity    *float64
}

// Window returns the trailing window as a duration.
func (r RecentSummary) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// DroughtSummary counts devices currently in a drought streak.
type DroughtSummary struct {
	DevicesInDrought int
	MaxStreakDays    *float64
	MaxDeviceID      string
	Threshold        *float64 // humidity threshold in %
}

// DroughtStreak is the drought detail for one device.
type DroughtStreak struct {
	DeviceID     string
	Threshold    *float64
	StreakDays   *float64
	LastHumidity *float64
	LastAt       *time.Time
	LastOKAt     *time.Time
}

// Bucket is the aggregation width of a metrics series.
type Bucket string

const (
	BucketHour Bucket = "hour"
	BucketDay  Bucket = "day"
	BucketWeek Bucket = "week"
)

// Buckets lists the supported buckets in display order.
var Buckets = []Bucket{BucketHour, BucketDay, BucketWeek}

// ParseBucket accepts a bucket in any letter case.
func ParseBucket(s string) (Bucket, bool) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BucketHour, BucketDay, BucketWeek:
		return b, true
	}
	return "", false
}

// Wire returns the uppercase identifier the backend expects.
func (b Bucket) Wire() string {
	return strings.ToUpper(string(b))
}

// Next cycles to the next bucket.
func (b Bucket) Next() Bucket {
	for i, candidate := range Buckets {
		if candidate == b {
			return Buckets[(i+1)%len(Buckets)]
		}
	}
	return BucketHour
}

// DefaultSpan is the range the backend uses when no from/to is given.
func (b Bucket) DefaultSpan() time.Duration {
	switch b {
	case BucketDay:
		return 30 * 24 * time.Hour
	case BucketWeek:
		return 26 * 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// MetricsPoint is one aggregated bucket.
type MetricsPoint struct {
	At             time.Time
	AvgTemperature *float64
	AvgHumidity    *float64
}

// Metrics is a per-device time series.
type Metrics struct {
	DeviceID string
	Bucket   Bucket
	Points   []MetricsPoint
}

// Humidity returns the non-null humidity averages in time order.
func (m Metrics) Humidity() []float64 {
	out := make([]float64, 0, len(m.Points))
	for _, p := range m.Points {
		if p.AvgHumidity != nil {
			out = append(out, *p.AvgHumidity)
		}
	}
	return out
}

// Temperature returns the non-null temperature averages in time order.
func (m Metrics) Temperature() []float64 {
	out := make([]float64, 0, len(m.Points))
	for _, p := range m.Points {
		if p.AvgTemperature != nil {
			out = append(out, *p.AvgTemperature)
		}
	}
	return out
}
