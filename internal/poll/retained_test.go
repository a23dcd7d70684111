package poll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetained_Lifecycle(t *testing.T) {
	var r Retained[string]
	t0 := time.Unix(1_700_000_000, 0)
	boom := errors.New("boom")

	assert.Equal(t, Empty, r.State())
	_, ok := r.Value()
	assert.False(t, ok)

	// Initial load fails: nothing to show but the error.
	r.Fail(boom, t0)
	assert.Equal(t, Failed, r.State())
	assert.Equal(t, boom, r.Err())

	r.Succeed("first", t0.Add(time.Second))
	assert.Equal(t, Fresh, r.State())
	assert.NoError(t, r.Err())

	// Later failure keeps the value on screen.
	r.Fail(boom, t0.Add(2*time.Second))
	assert.Equal(t, Stale, r.State())
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, "first", v)
	assert.Equal(t, t0.Add(time.Second), r.UpdatedAt())
	assert.Equal(t, t0.Add(2*time.Second), r.TriedAt())

	r.Succeed("second", t0.Add(3*time.Second))
	assert.Equal(t, Fresh, r.State())
	v, _ = r.Value()
	assert.Equal(t, "second", v)

	r.Reset()
	assert.Equal(t, Empty, r.State())
}

func TestViewState_String(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", ViewState(9).String())
}
