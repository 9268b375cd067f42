package httpmon_test

import (
	"math/rand"
	"testing"

	"github.com/fwojciec/httpmon"
	"github.com/stretchr/testify/assert"
)

func newTestResource() *httpmon.Resource {
	return &httpmon.Resource{
		Source:      "http://example.com/a.bin",
		MinInterval: 1000,
		MaxInterval: 60000,
	}
}

func defaultTuning() httpmon.Tuning {
	return httpmon.DefaultSettings().Tuning()
}

func TestTuning_NextRequestTime(t *testing.T) {
	t.Parallel()

	t.Run("first success without last-modified waits the minimum interval", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()

		next := defaultTuning().NextRequestTime(r, httpmon.Observation{RequestTime: 10000, Success: true})

		// smoothed=1000, 90% is 900, clamped back up to 1000
		assert.Equal(t, int64(11000), next)
		assert.Equal(t, int64(1000), r.SmoothedDelta)
		assert.Equal(t, int64(10000), r.PrevLocalDate)
		assert.Equal(t, 1, r.ConsecutiveSuccesses)
	})

	t.Run("smooths the observed local delta", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		tuning := defaultTuning()

		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 10000, Success: true})

		next := tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 20000, Success: true})
		assert.Equal(t, int64(3250), r.SmoothedDelta)
		assert.Equal(t, int64(20000+2925), next)

		next = tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 30000, Success: true})
		assert.Equal(t, int64(4937), r.SmoothedDelta)
		assert.Equal(t, int64(30000+4443), next)

		next = tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 31000, Success: true})
		assert.Equal(t, int64(1984), r.SmoothedDelta)
		assert.Equal(t, int64(31000+1785), next)
	})

	t.Run("blends local delta with server last-modified delta", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		r.PrevLocalDate = 10000
		r.PrevLastModified = 100000

		next := defaultTuning().NextRequestTime(r, httpmon.Observation{
			RequestTime:  30000,
			Success:      true,
			LastModified: 130000,
		})

		// (20000 + 30000) / 2 = 25000 seeds the smoothed delta
		assert.Equal(t, int64(25000), r.SmoothedDelta)
		assert.Equal(t, int64(30000+22500), next)
		assert.Equal(t, int64(130000), r.PrevLastModified)
	})

	t.Run("snaps to the minimum after a streak of successes", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		tuning := defaultTuning()
		tuning.SuccessCountToMin = 3

		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 10000, Success: true})
		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 20000, Success: true})
		assert.Equal(t, 2, r.ConsecutiveSuccesses)
		assert.Equal(t, int64(3250), r.SmoothedDelta)

		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 30000, Success: true})

		// thisDelta was 1000, not 10000: (3250 + 3*1000) / 4
		assert.Equal(t, int64(1562), r.SmoothedDelta)
		assert.Equal(t, 0, r.ConsecutiveSuccesses)
	})

	t.Run("backs off to the maximum after a streak of failures", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		tuning := defaultTuning()
		tuning.FailCountToMax = 2

		next := tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 10000})
		assert.Equal(t, int64(11000), next)
		next = tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 20000})
		assert.Equal(t, int64(21000), next)
		assert.Equal(t, 2, r.ConsecutiveFailures)

		next = tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 30000})
		assert.Equal(t, int64(30000+60000), next)
	})

	t.Run("failure resets the success streak and success resets the failure streak", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		tuning := defaultTuning()

		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 10000, Success: true})
		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 20000})
		assert.Equal(t, 0, r.ConsecutiveSuccesses)
		assert.Equal(t, 1, r.ConsecutiveFailures)

		tuning.NextRequestTime(r, httpmon.Observation{RequestTime: 30000, Success: true})
		assert.Equal(t, 0, r.ConsecutiveFailures)
		assert.Equal(t, 1, r.ConsecutiveSuccesses)
	})

	t.Run("failure does not touch the learned history", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()
		r.PrevLocalDate = 5000
		r.PrevLastModified = 4000
		r.SmoothedDelta = 7000

		defaultTuning().NextRequestTime(r, httpmon.Observation{RequestTime: 10000, LastModified: 9000})

		assert.Equal(t, int64(5000), r.PrevLocalDate)
		assert.Equal(t, int64(4000), r.PrevLastModified)
		assert.Equal(t, int64(7000), r.SmoothedDelta)
	})

	t.Run("prefers the server expiry over the estimate", func(t *testing.T) {
		t.Parallel()

		const date = int64(1_700_000_000_000)
		for _, success := range []bool{true, false} {
			r := newTestResource()
			r.PrevLocalDate = 1000
			r.SmoothedDelta = 40000

			next := defaultTuning().NextRequestTime(r, httpmon.Observation{
				RequestTime: 50000,
				Success:     success,
				Date:        date,
				Expires:     date + 5000,
			})

			assert.Equal(t, int64(55000), next)
		}
	})

	t.Run("ignores an expiry that is not after the date", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()

		next := defaultTuning().NextRequestTime(r, httpmon.Observation{
			RequestTime: 10000,
			Date:        20000,
			Expires:     20000,
		})

		assert.Equal(t, int64(11000), next)
	})

	t.Run("clamps an expiry beyond the maximum interval", func(t *testing.T) {
		t.Parallel()

		r := newTestResource()

		next := defaultTuning().NextRequestTime(r, httpmon.Observation{
			RequestTime: 10000,
			Success:     true,
			Date:        20000,
			Expires:     20000 + 3_600_000,
		})

		assert.Equal(t, int64(70000), next)
	})
}

func TestTuning_NextRequestTime_StaysWithinBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	r := &httpmon.Resource{MinInterval: 2000, MaxInterval: 30000}
	tuning := httpmon.Tuning{DeltaFraction: 75, SuccessCountToMin: 4, FailCountToMax: 3}

	now := int64(1_000_000)
	lastModified := int64(500_000)
	for i := 0; i < 1000; i++ {
		now += rng.Int63n(120000)
		o := httpmon.Observation{RequestTime: now, Success: rng.Intn(3) > 0}
		if rng.Intn(2) == 0 {
			lastModified += rng.Int63n(200000)
			o.LastModified = lastModified
		}
		if rng.Intn(4) == 0 {
			o.Date = now
			o.Expires = now + rng.Int63n(100000) - 20000
		}

		next := tuning.NextRequestTime(r, o)

		delta := next - now
		assert.GreaterOrEqual(t, delta, r.MinInterval, "step %d", i)
		assert.LessOrEqual(t, delta, r.MaxInterval, "step %d", i)
	}
}
