package httpmon

// Resource is one monitored source URL and the destination its content is
// written to, together with the adaptive polling state for the pair.
//
// All times are Unix milliseconds and all intervals are milliseconds.
// A zero time means "unknown".
type Resource struct {
	Source      string
	Destination string

	MinInterval     int64
	MaxInterval     int64
	InitialSleep    int64
	NextRequestTime int64

	// PrevLocalDate is the local time of the last successful poll.
	PrevLocalDate int64
	// PrevLastModified is the last Last-Modified time reported by the server.
	PrevLastModified int64
	// SmoothedDelta is the running estimate of the update period.
	SmoothedDelta int64

	ConsecutiveSuccesses int
	ConsecutiveFailures  int

	// LastModifiedRaw is the exact Last-Modified header value of the last
	// successful response. It is sent back verbatim as If-Modified-Since.
	LastModifiedRaw string
	LastPayload     []byte

	// Authorization is an opaque Authorization header value.
	Authorization string
}

// ResourceKey identifies a resource by its (source, destination) pair.
type ResourceKey struct {
	Source      string
	Destination string
}

// Key returns the identity of the resource.
func (r *Resource) Key() ResourceKey {
	return ResourceKey{Source: r.Source, Destination: r.Destination}
}

// Validate returns an error if the resource contains invalid fields.
func (r *Resource) Validate() error {
	if r.Source == "" {
		return Errorf(EINVALID, "resource source URL required")
	}
	if r.MinInterval <= 0 {
		return Errorf(EINVALID, "resource %s: minimum interval must be positive", r.Source)
	}
	if r.MaxInterval < r.MinInterval {
		return Errorf(EINVALID, "resource %s: maximum interval below minimum", r.Source)
	}
	return nil
}

// ResetHistory forgets everything the estimator has learned about the
// resource. The next poll starts over as if it were the first.
func (r *Resource) ResetHistory() {
	r.PrevLocalDate = 0
	r.PrevLastModified = 0
	r.SmoothedDelta = 0
	r.ConsecutiveSuccesses = 0
	r.ConsecutiveFailures = 0
}

// ResourceFactory creates a resource from a configuration entry.
type ResourceFactory func(rc ResourceConfig, s Settings) *Resource

// NewResource is the default ResourceFactory. Per-resource overrides win
// over the global settings.
func NewResource(rc ResourceConfig, s Settings) *Resource {
	r := &Resource{
		Source:        rc.Source,
		Destination:   rc.Destination,
		MinInterval:   s.MinimumInterval,
		MaxInterval:   s.MaximumInterval,
		InitialSleep:  rc.InitialSleep,
		Authorization: s.Authorization,
	}
	if rc.MinInterval > 0 {
		r.MinInterval = rc.MinInterval
	}
	if rc.MaxInterval > 0 {
		r.MaxInterval = rc.MaxInterval
	}
	if r.MaxInterval < r.MinInterval {
		r.MaxInterval = r.MinInterval
	}
	if rc.Authorization != "" {
		r.Authorization = rc.Authorization
	}
	return r
}
