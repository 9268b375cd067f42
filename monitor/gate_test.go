package monitor_test

import (
	"context"
	"testing"

	"github.com/fwojciec/httpmon"
	"github.com/fwojciec/httpmon/mock"
	"github.com/fwojciec/httpmon/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateFetcher serves the gate with a Last-Modified age chosen by the test
// and counts fetches per URL.
type gateFetcher struct {
	clock *clock
	age   int64
	calls map[string]int
}

func (f *gateFetcher) fetcher() *mock.Fetcher {
	return &mock.Fetcher{GetFn: func(_ context.Context, req httpmon.Request) (*httpmon.Response, error) {
		f.calls[req.URL]++
		resp := ok("payload")
		if req.URL == "http://gate/g" {
			resp.LastModified = f.clock.now - f.age
		}
		return resp, nil
	}}
}

func newGateEngine(age int64) (*monitor.Engine, *gateFetcher, *clock) {
	c := newClock()
	f := &gateFetcher{clock: c, age: age, calls: map[string]int{}}
	e := &monitor.Engine{Fetcher: f.fetcher(), Now: c.Now, Sleep: c.Sleep}
	e.RegisterGate(&httpmon.Resource{Source: "http://gate/g", MinInterval: 1000, MaxInterval: 60000})
	return e, f, c
}

func TestEngine_CheckGates(t *testing.T) {
	t.Parallel()

	t.Run("passes without gates", func(t *testing.T) {
		t.Parallel()

		e := &monitor.Engine{}

		assert.True(t, e.CheckGates(context.Background()))
	})

	t.Run("passes when a gate was modified within its minimum interval", func(t *testing.T) {
		t.Parallel()

		e, f, _ := newGateEngine(500)

		assert.True(t, e.CheckGates(context.Background()))
		assert.Equal(t, 1, f.calls["http://gate/g"])
	})

	t.Run("caches a passing check until the gate interval elapses", func(t *testing.T) {
		t.Parallel()

		e, f, c := newGateEngine(500)

		require.True(t, e.CheckGates(context.Background()))
		c.now += 999
		require.True(t, e.CheckGates(context.Background()))
		assert.Equal(t, 1, f.calls["http://gate/g"])

		c.now++
		require.True(t, e.CheckGates(context.Background()))
		assert.Equal(t, 2, f.calls["http://gate/g"])
	})

	t.Run("fails when every gate is stale", func(t *testing.T) {
		t.Parallel()

		e, _, _ := newGateEngine(10000)

		assert.False(t, e.CheckGates(context.Background()))
	})

	t.Run("holds the main queue while gated", func(t *testing.T) {
		t.Parallel()

		e, f, c := newGateEngine(10000)
		e.Register(&httpmon.Resource{Source: "http://src/a", MinInterval: 1000, MaxInterval: 60000})

		require.NoError(t, e.Step(context.Background()))

		assert.Zero(t, f.calls["http://src/a"])
		assert.Equal(t, start+1000, c.now)
		assert.Equal(t, monitor.StateGated, e.State())
	})

	t.Run("resets resource history once the gates open again", func(t *testing.T) {
		t.Parallel()

		e, f, _ := newGateEngine(10000)
		e.Register(&httpmon.Resource{Source: "http://src/a", MinInterval: 1000, MaxInterval: 60000})
		b := e.Register(&httpmon.Resource{
			Source:              "http://src/b",
			MinInterval:         1000,
			MaxInterval:         60000,
			NextRequestTime:     start + 50000,
			SmoothedDelta:       7777,
			PrevLocalDate:       start - 7777,
			ConsecutiveFailures: 3,
		})

		require.NoError(t, e.Step(context.Background()))
		require.Equal(t, int64(7777), b.SmoothedDelta)

		f.age = 500
		require.NoError(t, e.Step(context.Background()))

		assert.Equal(t, 1, f.calls["http://src/a"])
		assert.Zero(t, b.SmoothedDelta)
		assert.Zero(t, b.PrevLocalDate)
		assert.Zero(t, b.ConsecutiveFailures)
	})
}
