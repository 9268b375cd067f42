package httpmon

import (
	"context"
	"net/url"
)

// PutRequest writes a payload to a destination URL.
type PutRequest struct {
	URL           string
	Authorization string
	Body          []byte

	// MkcolQuery is appended to the collection path when the destination
	// collection has to be created.
	MkcolQuery string
}

// Putter writes fetched content to its destination.
type Putter interface {
	// Put writes the body and returns the HTTP status of the write.
	// A missing destination collection is created and reported as
	// success; the write itself is attempted again on the next change.
	Put(ctx context.Context, req PutRequest) (status int, err error)
}

// SchemePutter routes writes to a Putter by destination URL scheme.
type SchemePutter map[string]Putter

// Put delegates to the Putter registered for the request URL's scheme.
func (m SchemePutter) Put(ctx context.Context, req PutRequest) (int, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return 0, Errorf(EINVALID, "malformed destination %q: %v", req.URL, err)
	}
	p, ok := m[u.Scheme]
	if !ok {
		return 0, Errorf(EINVALID, "unsupported destination scheme %q", u.Scheme)
	}
	return p.Put(ctx, req)
}
