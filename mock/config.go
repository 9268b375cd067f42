package mock

import (
	"github.com/fwojciec/httpmon"
)

var _ httpmon.ConfigParser = (*ConfigParser)(nil)

// ConfigParser is a mock implementation of httpmon.ConfigParser.
type ConfigParser struct {
	ParseConfigFn func(data []byte) (*httpmon.Config, error)
}

func (p *ConfigParser) ParseConfig(data []byte) (*httpmon.Config, error) {
	return p.ParseConfigFn(data)
}
