package storage

import (
	"context"
	"io"
)

// Provider persists generated documents and returns a URL a customer can
// open from chat.
type Provider interface {
	Put(ctx context.Context, key string, r io.Reader) (url string, err error)
}
