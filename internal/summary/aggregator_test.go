package summary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvz-iot/pvz/internal/device"
	pvzerrors "github.com/pvz-iot/pvz/internal/errors"
	"github.com/pvz-iot/pvz/internal/poll"
)

func ptr[T any](v T) *T { return &v }

type fakeSource struct {
	recent     device.RecentSummary
	drought    device.DroughtSummary
	recentErr  error
	droughtErr error

	// barrier, when set, makes each call wait until both calls have started.
	barrier *sync.WaitGroup
}

func (f *fakeSource) wait(ctx context.Context) error {
	if f.barrier == nil {
		return nil
	}
	f.barrier.Done()
	done := make(chan struct{})
	go func() {
		f.barrier.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("sibling fetch was never issued")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) RecentSummary(ctx context.Context, _, _ string) (device.RecentSummary, error) {
	if err := f.wait(ctx); err != nil {
		return device.RecentSummary{}, err
	}
	return f.recent, f.recentErr
}

func (f *fakeSource) DroughtSummary(ctx context.Context, _, _ string) (device.DroughtSummary, error) {
	if err := f.wait(ctx); err != nil {
		return device.DroughtSummary{}, err
	}
	return f.drought, f.droughtErr
}

func TestRefresh_JoinsAndClassifies(t *testing.T) {
	src := &fakeSource{
		recent:  device.RecentSummary{WindowSeconds: 600, Total: ptr(5), Online: ptr(4)},
		drought: device.DroughtSummary{DevicesInDrought: 2, MaxStreakDays: ptr(4.5)},
	}

	s, err := New(src).Refresh(context.Background(), "prod", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 5, *s.Recent.Total)
	assert.Equal(t, 2, s.Drought.DevicesInDrought)
	assert.Equal(t, device.DroughtWarn, s.Level)
}

func TestRefresh_IssuesConcurrently(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)
	src := &fakeSource{barrier: &barrier}

	_, err := New(src).Refresh(context.Background(), "prod", "tenant-1")
	require.NoError(t, err, "each fetch waits for the other; a sequential join would deadlock")
}

func TestRefresh_AnyFailureFailsWhole(t *testing.T) {
	transport := pvzerrors.Transport("drought summary", 503, "")

	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"drought fails", &fakeSource{droughtErr: transport}},
		{"recent fails", &fakeSource{recentErr: transport}},
		{"both fail", &fakeSource{recentErr: transport, droughtErr: transport}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.src).Refresh(context.Background(), "prod", "tenant-1")
			require.Error(t, err)
			assert.True(t, pvzerrors.IsCode(err, pvzerrors.ErrTransport))
			assert.Equal(t, Summary{}, s)
		})
	}
}

// The aggregator forgets everything between calls; the consumer's retained
// view is what keeps the previous pair on screen.
func TestRefresh_PartialFailureRetainsPriorSummary(t *testing.T) {
	src := &fakeSource{
		recent:  device.RecentSummary{Total: ptr(5), AvgHumidity: ptr(41.0)},
		drought: device.DroughtSummary{DevicesInDrought: 1, MaxStreakDays: ptr(12.0)},
	}
	agg := New(src)
	var view poll.Retained[Summary]
	now := time.Unix(1_700_000_000, 0)

	apply := func() {
		s, err := agg.Refresh(context.Background(), "prod", "tenant-1")
		if err != nil {
			view.Fail(err, now)
			return
		}
		view.Succeed(s, now)
	}

	apply()
	prior, ok := view.Value()
	require.True(t, ok)
	assert.Equal(t, device.DroughtBad, prior.Level)

	src.recent = device.RecentSummary{Total: ptr(6)}
	src.droughtErr = pvzerrors.Transport("drought summary", 500, "")
	apply()

	assert.Equal(t, poll.Stale, view.State())
	assert.Error(t, view.Err())
	got, _ := view.Value()
	assert.Equal(t, prior, got, "neither half of the prior pair is replaced")
}

func TestRefresh_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var barrier sync.WaitGroup
	barrier.Add(3) // never released
	_, err := New(&fakeSource{barrier: &barrier}).Refresh(ctx, "prod", "tenant-1")
	assert.ErrorIs(t, err, context.Canceled)
}
