package httpmon

import (
	"encoding/base64"
	"net"
	"strconv"
	"strings"
)

// Default settings.
const (
	DefaultMinimumInterval   = 1000
	DefaultMaximumInterval   = 60000
	DefaultDeltaFraction     = 90
	DefaultSuccessCountToMin = 5
	DefaultFailCountToMax    = 5
	DefaultReadTimeout       = 60000
)

// Settings holds the global configuration of a monitor.
// Intervals and delays are milliseconds.
type Settings struct {
	MinimumInterval   int64
	MaximumInterval   int64
	DeltaFraction     int64
	SuccessCountToMin int
	FailCountToMax    int

	// DestinationPrefix is prepended to every resource's file name.
	// It always ends with a slash when set.
	DestinationPrefix string
	// MkcolQuery is appended to collection paths in MKCOL requests.
	MkcolQuery string

	// StaggerDelay spreads the first poll of successive resources apart.
	StaggerDelay int64
	// ReadTimeout bounds each resource GET.
	ReadTimeout int64

	// TCPPort and WebSocketPort enable live subscribers when non-zero.
	TCPPort       int
	WebSocketPort int

	UDPHost string
	UDPPort int

	// Authorization is sent with every GET unless a resource overrides it.
	Authorization string
	// PutAuthorization is sent with every PUT and MKCOL. It falls back to
	// Authorization when empty.
	PutAuthorization string

	Debug bool
}

// DefaultSettings returns the settings used when the document is silent.
func DefaultSettings() Settings {
	return Settings{
		MinimumInterval:   DefaultMinimumInterval,
		MaximumInterval:   DefaultMaximumInterval,
		DeltaFraction:     DefaultDeltaFraction,
		SuccessCountToMin: DefaultSuccessCountToMin,
		FailCountToMax:    DefaultFailCountToMax,
		ReadTimeout:       DefaultReadTimeout,
	}
}

// Tuning returns the estimator knobs carried by the settings.
func (s Settings) Tuning() Tuning {
	return Tuning{
		DeltaFraction:     s.DeltaFraction,
		SuccessCountToMin: s.SuccessCountToMin,
		FailCountToMax:    s.FailCountToMax,
	}
}

// UDPTarget returns the host:port of the UDP subscriber, or "" if none.
func (s Settings) UDPTarget() string {
	if s.UDPHost == "" {
		return ""
	}
	return net.JoinHostPort(s.UDPHost, strconv.Itoa(s.UDPPort))
}

// PutAuth returns the Authorization value for destination writes.
func (s Settings) PutAuth() string {
	if s.PutAuthorization != "" {
		return s.PutAuthorization
	}
	return s.Authorization
}

// Validate returns an error if the settings are inconsistent.
func (s Settings) Validate() error {
	if s.MinimumInterval <= 0 {
		return Errorf(EINVALID, "minimum interval must be positive")
	}
	if s.MaximumInterval < s.MinimumInterval {
		return Errorf(EINVALID, "maximum interval %d below minimum interval %d", s.MaximumInterval, s.MinimumInterval)
	}
	if s.DeltaFraction <= 0 || s.DeltaFraction >= 100 {
		return Errorf(EINVALID, "delta fraction must be between 0 and 100, got %d", s.DeltaFraction)
	}
	if s.SuccessCountToMin <= 0 || s.FailCountToMax <= 0 {
		return Errorf(EINVALID, "success and failure counts must be positive")
	}
	if (s.UDPHost == "") != (s.UDPPort == 0) {
		return Errorf(EINVALID, "UDP host and port must be given together")
	}
	if s.ReadTimeout < 0 || s.StaggerDelay < 0 {
		return Errorf(EINVALID, "read timeout and stagger delay must not be negative")
	}
	return nil
}

// ResourceConfig is one monitored resource as described by the document.
// Zero intervals fall back to the global settings.
type ResourceConfig struct {
	Source        string
	Destination   string
	MinInterval   int64
	MaxInterval   int64
	InitialSleep  int64
	Authorization string

	// Gate marks a resource whose freshness must be confirmed before the
	// main queue is serviced.
	Gate bool
	// Config marks the document itself as a monitored resource.
	Config bool
}

// Config is a parsed configuration document.
type Config struct {
	Settings  Settings
	Resources []ResourceConfig
}

// Validate returns an error if the configuration cannot be applied.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	var configs int
	for i, rc := range c.Resources {
		if rc.Source == "" {
			return Errorf(EINVALID, "resource %d: source URL required", i)
		}
		if rc.MinInterval < 0 || rc.MaxInterval < 0 || rc.InitialSleep < 0 {
			return Errorf(EINVALID, "resource %s: intervals must not be negative", rc.Source)
		}
		if rc.Config {
			configs++
		}
	}
	if configs > 1 {
		return Errorf(EINVALID, "at most one config resource allowed, got %d", configs)
	}
	return nil
}

// ConfigParser turns a configuration document into a Config.
type ConfigParser interface {
	ParseConfig(data []byte) (*Config, error)
}

// BasicAuth returns the Authorization header value for HTTP Basic
// authentication with the given credentials.
func BasicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// JoinDestination appends name to prefix, normalizing the prefix to end
// with exactly one slash. An empty prefix yields an empty destination.
func JoinDestination(prefix, name string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(name, "/")
}
