package httpmon_test

import (
	"testing"

	"github.com/fwojciec/httpmon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *httpmon.Config {
		return &httpmon.Config{
			Settings: httpmon.DefaultSettings(),
			Resources: []httpmon.ResourceConfig{
				{Source: "http://example.com/a.bin"},
				{Source: "http://example.com/config.xml", Config: true},
			},
		}
	}

	t.Run("accepts defaults", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		modify func(c *httpmon.Config)
	}{
		{"delta fraction of zero", func(c *httpmon.Config) { c.Settings.DeltaFraction = 0 }},
		{"delta fraction of 100", func(c *httpmon.Config) { c.Settings.DeltaFraction = 100 }},
		{"maximum below minimum", func(c *httpmon.Config) { c.Settings.MaximumInterval = 10 }},
		{"zero success count", func(c *httpmon.Config) { c.Settings.SuccessCountToMin = 0 }},
		{"UDP host without port", func(c *httpmon.Config) { c.Settings.UDPHost = "localhost" }},
		{"UDP port without host", func(c *httpmon.Config) { c.Settings.UDPPort = 9000 }},
		{"resource without source", func(c *httpmon.Config) { c.Resources[0].Source = "" }},
		{"two config resources", func(c *httpmon.Config) { c.Resources[0].Config = true }},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.modify(c)

			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, httpmon.EINVALID, httpmon.ErrorCode(err))
		})
	}
}

func TestSettings_UDPTarget(t *testing.T) {
	t.Parallel()

	s := httpmon.DefaultSettings()
	assert.Empty(t, s.UDPTarget())

	s.UDPHost = "127.0.0.1"
	s.UDPPort = 9000
	assert.Equal(t, "127.0.0.1:9000", s.UDPTarget())
}

func TestSettings_PutAuth(t *testing.T) {
	t.Parallel()

	s := httpmon.Settings{Authorization: "Basic default"}
	assert.Equal(t, "Basic default", s.PutAuth())

	s.PutAuthorization = "Basic put"
	assert.Equal(t, "Basic put", s.PutAuth())
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	s := httpmon.DefaultSettings()
	s.Authorization = "Basic global"

	t.Run("inherits global settings", func(t *testing.T) {
		t.Parallel()

		r := httpmon.NewResource(httpmon.ResourceConfig{
			Source:      "http://example.com/a.bin",
			Destination: "http://dav.example.com/a.bin",
		}, s)

		assert.Equal(t, int64(1000), r.MinInterval)
		assert.Equal(t, int64(60000), r.MaxInterval)
		assert.Equal(t, "Basic global", r.Authorization)
		assert.Equal(t, httpmon.ResourceKey{
			Source:      "http://example.com/a.bin",
			Destination: "http://dav.example.com/a.bin",
		}, r.Key())
	})

	t.Run("applies per-resource overrides", func(t *testing.T) {
		t.Parallel()

		r := httpmon.NewResource(httpmon.ResourceConfig{
			Source:        "http://example.com/a.bin",
			MinInterval:   5000,
			MaxInterval:   9000,
			InitialSleep:  300,
			Authorization: "Bearer token",
		}, s)

		assert.Equal(t, int64(5000), r.MinInterval)
		assert.Equal(t, int64(9000), r.MaxInterval)
		assert.Equal(t, int64(300), r.InitialSleep)
		assert.Equal(t, "Bearer token", r.Authorization)
	})

	t.Run("raises maximum to a larger minimum override", func(t *testing.T) {
		t.Parallel()

		r := httpmon.NewResource(httpmon.ResourceConfig{
			Source:      "http://example.com/a.bin",
			MinInterval: 120000,
		}, s)

		assert.Equal(t, int64(120000), r.MaxInterval)
		require.NoError(t, r.Validate())
	})
}

func TestResource_ResetHistory(t *testing.T) {
	t.Parallel()

	r := &httpmon.Resource{
		NextRequestTime:      42,
		PrevLocalDate:        1,
		PrevLastModified:     2,
		SmoothedDelta:        3,
		ConsecutiveSuccesses: 4,
		ConsecutiveFailures:  5,
		LastModifiedRaw:      "Tue, 01 Jan 2030 00:00:00 GMT",
	}

	r.ResetHistory()

	assert.Zero(t, r.PrevLocalDate)
	assert.Zero(t, r.PrevLastModified)
	assert.Zero(t, r.SmoothedDelta)
	assert.Zero(t, r.ConsecutiveSuccesses)
	assert.Zero(t, r.ConsecutiveFailures)
	assert.Equal(t, int64(42), r.NextRequestTime)
	assert.Equal(t, "Tue, 01 Jan 2030 00:00:00 GMT", r.LastModifiedRaw)
}

func TestJoinDestination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://dav/data/a.bin", httpmon.JoinDestination("http://dav/data", "a.bin"))
	assert.Equal(t, "http://dav/data/a.bin", httpmon.JoinDestination("http://dav/data/", "a.bin"))
	assert.Equal(t, "http://dav/data/a.bin", httpmon.JoinDestination("http://dav/data//", "/a.bin"))
	assert.Empty(t, httpmon.JoinDestination("", "a.bin"))
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", httpmon.BasicAuth("Aladdin", "open sesame"))
}
