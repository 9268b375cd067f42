package mock

import (
	"context"

	"github.com/fwojciec/httpmon"
)

var _ httpmon.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of httpmon.Fetcher.
type Fetcher struct {
	GetFn func(ctx context.Context, req httpmon.Request) (*httpmon.Response, error)
}

func (f *Fetcher) Get(ctx context.Context, req httpmon.Request) (*httpmon.Response, error) {
	return f.GetFn(ctx, req)
}
