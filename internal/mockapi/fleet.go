package mockapi

import (
	"fmt"
	"math"
	"time"

	"github.com/pvz-iot/pvz/internal/api"
	"github.com/pvz-iot/pvz/internal/device"
)

const (
	// BaseLat and BaseLon are the centre of the synthetic fleet.
	BaseLat = 54.8433
	BaseLon = 83.0931

	// DroughtThreshold is the humidity in % below which a device is dry.
	DroughtThreshold = 30.0

	// RecentWindow is the trailing window of the recent summary.
	RecentWindow = 10 * time.Minute

	maxStreak = 60 * 24 * time.Hour
	maxPoints = 1000
)

// humidityOffsets shifts each device's humidity so the fleet has a wet
// majority, one chronically dry device and one borderline device.
var humidityOffsets = []float64{12, 4, -34, 8, -17}

// Fleet generates deterministic readings for n devices. Every value is a
// pure function of device index and time, so repeated requests agree.
type Fleet struct {
	n     int
	start time.Time // state-change timestamp reported by every device
}

// NewFleet creates a fleet of n devices named device-001, device-002, ...
func NewFleet(n int, start time.Time) *Fleet {
	if n < 0 {
		n = 0
	}
	return &Fleet{n: n, start: start}
}

// IDs returns the device ids in roster order.
func (f *Fleet) IDs() []string {
	ids := make([]string, f.n)
	for i := range ids {
		ids[i] = deviceID(i)
	}
	return ids
}

// Index returns the position of id in the roster.
func (f *Fleet) Index(id string) (int, bool) {
	for i := 0; i < f.n; i++ {
		if deviceID(i) == id {
			return i, true
		}
	}
	return 0, false
}

func deviceID(i int) string {
	return fmt.Sprintf("device-%03d", i+1)
}

// silent devices have never reported anything.
func silent(i int) bool {
	return i%7 == 6
}

func online(i int) bool {
	return i%4 != 3
}

// Temperature in °C: a seasonal swing around 2 °C, a daily swing and a
// small per-device offset.
func (f *Fleet) Temperature(i int, at time.Time) float64 {
	day := float64(at.YearDay())
	seasonal := 2 - 18*math.Cos(2*math.Pi*(day-15)/365)
	daily := 4 * math.Sin(2*math.Pi*(float64(at.Hour())-9)/24)
	return round2(seasonal + daily + float64(i%5)*0.6)
}

// Humidity in %, clamped to [5, 98].
func (f *Fleet) Humidity(i int, at time.Time) float64 {
	month := float64(at.Month())
	seasonal := 52 + 12*math.Cos(2*math.Pi*(month-1)/12)
	daily := 6 * math.Cos(2*math.Pi*(float64(at.Hour())-5)/24)
	h := seasonal + daily + humidityOffsets[i%len(humidityOffsets)]
	return round2(math.Max(5, math.Min(98, h)))
}

// Streak returns how long device i has been below DroughtThreshold at now,
// walking back hour by hour, plus the last time it was at or above it.
func (f *Fleet) Streak(i int, now time.Time) (time.Duration, time.Time) {
	var streak time.Duration
	for streak < maxStreak {
		at := now.Add(-streak)
		if f.Humidity(i, at) >= DroughtThreshold {
			return streak, at
		}
		streak += time.Hour
	}
	return maxStreak, time.Time{}
}

// State returns the roster entry for device i.
func (f *Fleet) State(i int, now time.Time) api.DeviceState {
	s := api.DeviceState{
		DeviceID: deviceID(i),
		Lat:      ptr(round6(BaseLat + 0.004*float64(i%3) - 0.003*float64(i/3))),
		Lon:      ptr(round6(BaseLon + 0.005*float64(i%4) - 0.002*float64(i/4))),
	}
	if silent(i) {
		return s
	}
	reported := now.Add(-time.Duration(i*7) * time.Second)
	s.T = ptr(f.Temperature(i, reported))
	s.H = ptr(f.Humidity(i, reported))
	s.TsHt = ptr(reported.UnixMilli())
	s.RSSI = ptr(float64(-60 - 3*i))
	s.SNR = ptr(round2(9.5 - 0.5*float64(i)))
	s.Bat = ptr(round2(3.7 - 0.05*float64(i)))
	s.Online = ptr(online(i))
	s.TsState = ptr(f.start.UnixMilli())
	return s
}

// Roster returns every device in roster order.
func (f *Fleet) Roster(now time.Time) []api.DeviceState {
	out := make([]api.DeviceState, f.n)
	for i := range out {
		out[i] = f.State(i, now)
	}
	return out
}

// RecentSummary averages the devices that reported within RecentWindow.
func (f *Fleet) RecentSummary(now time.Time) api.RecentSummary {
	var total, on int
	var tSum, hSum float64
	var tN, hN int
	for _, s := range f.Roster(now) {
		total++
		if s.Online != nil && *s.Online {
			on++
		}
		if s.TsHt == nil || now.Sub(time.UnixMilli(*s.TsHt)) > RecentWindow {
			continue
		}
		if s.T != nil {
			tSum += *s.T
			tN++
		}
		if s.H != nil {
			hSum += *s.H
			hN++
		}
	}

	out := api.RecentSummary{
		WindowSeconds:  int(RecentWindow / time.Second),
		GeneratedAt:    ptr(now.UnixMilli()),
		TotalDevices:   ptr(total),
		OnlineDevices:  ptr(on),
		OfflineDevices: ptr(total - on),
	}
	if tN > 0 {
		out.AvgTemp = ptr(round2(tSum / float64(tN)))
	}
	if hN > 0 {
		out.AvgHumidity = ptr(round2(hSum / float64(hN)))
	}
	return out
}

// DroughtStreak returns the streak detail for device i, or false for a
// device with no readings.
func (f *Fleet) DroughtStreak(i int, now time.Time) (api.DroughtStreak, bool) {
	if silent(i) {
		return api.DroughtStreak{}, false
	}
	streak, lastOK := f.Streak(i, now)
	out := api.DroughtStreak{
		DeviceID:   deviceID(i),
		Threshold:  ptr(DroughtThreshold),
		LastTs:     ptr(now.UnixMilli()),
		StreakDays: ptr(round2(streak.Hours() / 24)),
		LastH:      ptr(f.Humidity(i, now)),
	}
	if !lastOK.IsZero() {
		out.LastOkTs = ptr(lastOK.UnixMilli())
	}
	return out, true
}

// DroughtSummary counts devices with a non-zero streak.
func (f *Fleet) DroughtSummary(now time.Time) api.DroughtSummary {
	out := api.DroughtSummary{Threshold: ptr(DroughtThreshold)}
	var maxDays float64
	for i := 0; i < f.n; i++ {
		s, ok := f.DroughtStreak(i, now)
		if !ok || *s.StreakDays <= 0 {
			continue
		}
		out.DevicesInDrought++
		if *s.StreakDays > maxDays {
			maxDays = *s.StreakDays
			out.MaxStreakDays = ptr(maxDays)
			out.MaxDeviceID = ptr(s.DeviceID)
		}
	}
	return out
}

// Metrics returns one averaged point per bucket in [from, to). A zero range
// uses the bucket's default span ending at now.
func (f *Fleet) Metrics(i int, bucket device.Bucket, from, to, now time.Time) api.DeviceMetrics {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		to = now
		from = now.Add(-bucket.DefaultSpan())
	}
	step := bucketStep(bucket)

	out := api.DeviceMetrics{
		DeviceID: deviceID(i),
		Bucket:   bucket.Wire(),
		Points:   []api.MetricsPoint{},
	}
	if silent(i) {
		return out
	}
	for at := from.Truncate(step); at.Before(to) && len(out.Points) < maxPoints; at = at.Add(step) {
		// Sample each bucket at four evenly spaced instants.
		var tSum, hSum float64
		for k := 0; k < 4; k++ {
			sample := at.Add(step * time.Duration(k) / 4)
			tSum += f.Temperature(i, sample)
			hSum += f.Humidity(i, sample)
		}
		out.Points = append(out.Points, api.MetricsPoint{
			Ts:   at.Unix(),
			TAvg: ptr(round2(tSum / 4)),
			HAvg: ptr(round2(hSum / 4)),
		})
	}
	return out
}

func bucketStep(b device.Bucket) time.Duration {
	switch b {
	case device.BucketDay:
		return 24 * time.Hour
	case device.BucketWeek:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

func ptr[T any](v T) *T { return &v }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
