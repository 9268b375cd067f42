package mock

import (
	"context"

	"github.com/fwojciec/httpmon"
)

var _ httpmon.Putter = (*Putter)(nil)

// Putter is a mock implementation of httpmon.Putter.
type Putter struct {
	PutFn func(ctx context.Context, req httpmon.PutRequest) (int, error)
}

func (p *Putter) Put(ctx context.Context, req httpmon.PutRequest) (int, error) {
	return p.PutFn(ctx, req)
}
