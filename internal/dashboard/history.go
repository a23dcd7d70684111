package dashboard

import "github.com/pvz-iot/pvz/internal/summary"

// DefaultHistorySize is the number of summary refreshes kept for trends.
// At the default 30s summary interval that is one hour.
const DefaultHistorySize = 120

// History keeps fleet-level trends across summary refreshes in ring
// buffers. It is owned by the update loop and takes no locks.
type History struct {
	size     int
	humidity *ringBuffer
	online   *ringBuffer
	drought  *ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history with the given capacity.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:     size,
		humidity: newRingBuffer(size),
		online:   newRingBuffer(size),
		drought:  newRingBuffer(size),
	}
}

// Push records one successful summary refresh. Fields the backend left
// null are skipped rather than recorded as zero.
func (h *History) Push(s summary.Summary) {
	if s.Recent.AvgHumidity != nil {
		h.humidity.push(*s.Recent.AvgHumidity)
	}
	if s.Recent.Online != nil {
		h.online.push(float64(*s.Recent.Online))
	}
	h.drought.push(float64(s.Drought.DevicesInDrought))
}

// Humidity returns up to count fleet average humidity values, oldest first.
func (h *History) Humidity(count int) []float64 {
	return h.humidity.getLast(count)
}

// Online returns up to count online device counts, oldest first.
func (h *History) Online(count int) []float64 {
	return h.online.getLast(count)
}

// InDrought returns up to count devices-in-drought counts, oldest first.
func (h *History) InDrought(count int) []float64 {
	return h.drought.getLast(count)
}

// Count returns how many refreshes have been recorded, capped at the size.
func (h *History) Count() int {
	return h.drought.count
}

// Clear drops all recorded values, e.g. when the env or tenant changes.
func (h *History) Clear() {
	*h = *NewHistory(h.size)
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	// head is the next write position, so the newest value is at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
