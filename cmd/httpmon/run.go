package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fwojciec/httpmon"
)

// Run loads the configuration document and monitors until the context ends.
func (c *RunCmd) Run(deps *Dependencies) error {
	data, err := ReadConfig(deps.Ctx, deps.Fetcher, c.Config)
	if err != nil {
		return err
	}

	if err := deps.Engine.Load(deps.Ctx, data); err != nil {
		return fmt.Errorf("load %s: %w", c.Config, err)
	}
	deps.Logger.Info("monitoring",
		"config", c.Config,
		"resources", len(deps.Engine.Resources()),
		"gates", len(deps.Engine.Gates()),
	)

	return deps.Engine.Run(deps.Ctx)
}

// ReadConfig reads a configuration document from a local path or an
// http(s) URL.
func ReadConfig(ctx context.Context, fetcher httpmon.Fetcher, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return data, nil
	}

	resp, err := fetcher.Get(ctx, httpmon.Request{URL: location})
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpmon.Errorf(httpmon.EUNAVAILABLE, "fetch config %s: HTTP %d", location, resp.StatusCode)
	}
	return resp.Body, nil
}
