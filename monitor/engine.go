// Package monitor schedules adaptive polling of HTTP resources.
// It owns the scheduling, gate and config queues and drives them from a
// single goroutine.
package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/httpmon"
)

// ErrExhausted is returned by Run and Step when no resource is left to poll.
var ErrExhausted = httpmon.Errorf(httpmon.ENOTFOUND, "no resources left to monitor")

// State is the scheduler state reported by Engine.State.
type State int32

const (
	StateIdle State = iota
	StateGated
	StateSleeping
	StatePolling
	StateReconfiguring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGated:
		return "gated"
	case StateSleeping:
		return "sleeping"
	case StatePolling:
		return "polling"
	case StateReconfiguring:
		return "reconfiguring"
	}
	return "unknown"
}

// Engine polls resources, writes changed content through to their
// destinations and subscribers, and reconfigures itself when its config
// resource changes.
//
// Except for State, Engine methods must be called from one goroutine.
type Engine struct {
	Fetcher     httpmon.Fetcher
	Putter      httpmon.Putter
	Parser      httpmon.ConfigParser
	NewFanout   httpmon.FanoutFactory
	NewResource httpmon.ResourceFactory
	Recorder    httpmon.PollRecorder
	Logger      *slog.Logger

	// OnConfigure is called with the new settings after every successful
	// Load or Reconfigure.
	OnConfigure func(s httpmon.Settings)

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	settings   httpmon.Settings
	queue      *Queue
	gates      *Queue
	config     *httpmon.Resource
	configHash uint64
	fanout     httpmon.Fanout
	loaded     bool

	invalidated    bool
	gateExpiration int64
	state          atomic.Int32
}

// Load applies the initial configuration document.
// The config resource, if the document names one, starts with data as its
// last payload.
func (e *Engine) Load(ctx context.Context, data []byte) error {
	return e.apply(data)
}

// Reconfigure replaces every queue and the fan-out with the ones described
// by data. On error the engine keeps running with its previous state.
func (e *Engine) Reconfigure(ctx context.Context, data []byte) error {
	prev := e.State()
	e.setState(StateReconfiguring)
	defer e.setState(prev)

	if err := e.apply(data); err != nil {
		return err
	}
	e.log().Info("reconfigured", "resources", e.queue.Len(), "gates", e.gates.Len())
	return nil
}

func (e *Engine) apply(data []byte) error {
	if e.Parser == nil {
		return httpmon.Errorf(httpmon.EINTERNAL, "no config parser")
	}
	cfg, err := e.Parser.ParseConfig(data)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	newResource := e.NewResource
	if newResource == nil {
		newResource = httpmon.NewResource
	}

	now := e.nowMillis()
	queue, gates := NewQueue(), NewQueue()
	var config *httpmon.Resource
	var n int64
	for _, rc := range cfg.Resources {
		r := newResource(rc, cfg.Settings)
		if err := r.Validate(); err != nil {
			return err
		}
		switch {
		case rc.Config:
			r.NextRequestTime = now + r.MinInterval
			if old := e.config; old != nil && old.Source == r.Source {
				r.NextRequestTime = old.NextRequestTime
				r.LastModifiedRaw = old.LastModifiedRaw
				r.PrevLastModified = old.PrevLastModified
			}
			r.LastPayload = data
			config = r
		case rc.Gate:
			r.NextRequestTime = now
			if !gates.Push(r) {
				e.log().Warn("duplicate gate ignored", "source", r.Source)
			}
		default:
			r.NextRequestTime = now + r.InitialSleep + n*cfg.Settings.StaggerDelay
			if !queue.Push(r) {
				e.log().Warn("duplicate resource ignored", "source", r.Source, "destination", r.Destination)
				continue
			}
			n++
		}
	}

	if err := e.replaceFanout(cfg.Settings); err != nil {
		return err
	}

	e.settings = cfg.Settings
	e.queue, e.gates, e.config = queue, gates, config
	e.configHash = xxhash.Sum64(data)
	e.gateExpiration = 0
	e.invalidated = true
	e.loaded = true
	if e.OnConfigure != nil {
		e.OnConfigure(cfg.Settings)
	}
	return nil
}

// replaceFanout closes the current fan-out and opens one for s. If the new
// fan-out cannot be opened the previous one is reopened.
func (e *Engine) replaceFanout(s httpmon.Settings) error {
	if e.NewFanout == nil {
		return nil
	}
	if e.fanout != nil {
		if err := e.fanout.Close(); err != nil {
			e.log().Warn("closing fan-out", "err", err)
		}
		e.fanout = nil
	}

	f, err := e.NewFanout(s)
	if err == nil {
		e.fanout = f
		return nil
	}

	if e.loaded {
		old, rerr := e.NewFanout(e.settings)
		if rerr != nil {
			e.log().Error("reopening previous fan-out", "err", rerr)
		} else {
			e.fanout = old
		}
	}
	return err
}

// Register schedules r on the main queue. If a resource with the same
// source and destination is already queued, that resource is returned
// instead.
func (e *Engine) Register(r *httpmon.Resource) *httpmon.Resource {
	e.init()
	return register(e.queue, r, e.nowMillis())
}

// RegisterGate adds r to the gate queue. Duplicates return the existing
// gate.
func (e *Engine) RegisterGate(r *httpmon.Resource) *httpmon.Resource {
	e.init()
	e.gateExpiration = 0
	return register(e.gates, r, e.nowMillis())
}

func register(q *Queue, r *httpmon.Resource, now int64) *httpmon.Resource {
	if existing, ok := q.Find(r.Key()); ok {
		return existing
	}
	if r.NextRequestTime == 0 {
		r.NextRequestTime = now + r.InitialSleep
	}
	q.Push(r)
	return r
}

// Run polls resources until ctx is done or nothing is left to poll.
// It returns nil when ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	defer e.setState(StateIdle)
	for {
		if err := e.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Step runs one scheduling cycle: it waits for the earliest due resource
// and polls it. While the gates are closed it only waits.
func (e *Engine) Step(ctx context.Context) error {
	e.init()

	if !e.CheckGates(ctx) {
		e.setState(StateGated)
		return e.sleep(ctx, millis(e.settings.MinimumInterval))
	}

	if e.queue.Len() == 0 && e.config == nil {
		return ErrExhausted
	}

	if e.invalidated {
		for _, r := range e.queue.Resources() {
			r.ResetHistory()
		}
		e.invalidated = false
	}

	r, isConfig := e.next()
	if wait := r.NextRequestTime - e.nowMillis(); wait > 0 {
		e.setState(StateSleeping)
		if err := e.sleep(ctx, millis(wait)); err != nil {
			return err
		}
	}

	e.setState(StatePolling)
	if isConfig {
		e.pollConfig(ctx)
		return nil
	}

	e.queue.Pop()
	res, err := e.Poll(ctx, r, true)
	if err != nil {
		e.log().Error("discarding resource", "source", r.Source, "destination", r.Destination, "err", err)
		if e.queue.Len() == 0 && e.config == nil {
			return ErrExhausted
		}
		return nil
	}
	e.queue.Push(r)

	if res.WriteErr != nil {
		if httpmon.ErrorCode(res.WriteErr) == httpmon.EINVALID {
			e.log().Warn("write skipped", "source", r.Source, "destination", r.Destination, "err", res.WriteErr)
		} else {
			e.log().Error("write failed", "source", r.Source, "destination", r.Destination, "err", res.WriteErr)
		}
	}
	return nil
}

// next returns the resource due first. Ties go to the main queue.
func (e *Engine) next() (*httpmon.Resource, bool) {
	head, ok := e.queue.Peek()
	if e.config != nil && (!ok || e.config.NextRequestTime < head.NextRequestTime) {
		return e.config, true
	}
	return head, false
}

func (e *Engine) pollConfig(ctx context.Context) {
	cfg := e.config
	prev := cfg.LastPayload

	res, err := e.Poll(ctx, cfg, false)
	if err != nil {
		e.log().Error("polling config", "source", cfg.Source, "err", err)
		cfg.NextRequestTime = e.nowMillis() + cfg.MinInterval
		return
	}
	if !res.Success || xxhash.Sum64(res.Payload) == e.configHash {
		return
	}

	// A rejected document keeps its Last-Modified, so it is not fetched again
	// until the source changes.
	if err := e.Reconfigure(ctx, res.Payload); err != nil {
		e.log().Error("reconfiguration failed", "source", cfg.Source, "err", err)
		cfg.LastPayload = prev
		cfg.NextRequestTime = e.nowMillis() + cfg.MinInterval
	}
}

// CheckGates reports whether polling may proceed. It is true when no gate
// is registered, while a previous check is still valid, or when some gate
// was modified within its own minimum interval.
func (e *Engine) CheckGates(ctx context.Context) bool {
	e.init()

	now := e.nowMillis()
	if e.gates.Len() == 0 || now < e.gateExpiration {
		return true
	}

	for _, g := range e.gates.Resources() {
		if _, err := e.Poll(ctx, g, false); err != nil {
			e.log().Warn("gate check failed", "source", g.Source, "err", err)
			continue
		}
		now = e.nowMillis()
		if g.PrevLastModified > 0 && now-g.PrevLastModified <= g.MinInterval {
			e.gateExpiration = now + g.MinInterval
			return true
		}
	}

	e.invalidated = true
	return false
}

// Close releases the fan-out listeners.
func (e *Engine) Close() error {
	if e.fanout == nil {
		return nil
	}
	err := e.fanout.Close()
	e.fanout = nil
	return err
}

// State returns the current scheduler state. It is safe to call from any
// goroutine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Settings returns the settings of the current configuration.
func (e *Engine) Settings() httpmon.Settings {
	return e.settings
}

// Resources returns the main queue in due order.
func (e *Engine) Resources() []*httpmon.Resource {
	e.init()
	return e.queue.Resources()
}

// Gates returns the registered gates.
func (e *Engine) Gates() []*httpmon.Resource {
	e.init()
	return e.gates.Resources()
}

// ConfigResource returns the self-monitoring config resource, or nil.
func (e *Engine) ConfigResource() *httpmon.Resource {
	return e.config
}

func (e *Engine) init() {
	if e.queue == nil {
		e.queue = NewQueue()
		e.settings = httpmon.DefaultSettings()
	}
	if e.gates == nil {
		e.gates = NewQueue()
	}
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

func (e *Engine) log() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

func (e *Engine) nowMillis() int64 {
	if e.Now == nil {
		return time.Now().UnixMilli()
	}
	return e.Now().UnixMilli()
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
