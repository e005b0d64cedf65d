package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilLoader is returned by GetOrLoad when no loader is supplied.
var ErrNilLoader = errors.New("store: nil loader")

// Loader produces the value for a key that is missing or expired.
type Loader func(ctx context.Context, key string) (any, error)

// GetOrLoad returns the fresh value for key, or loads and stores it.
//
// Concurrent misses on the same key share a single loader call.
// A loader error is returned wrapped and nothing is stored.
func (s *Store) GetOrLoad(ctx context.Context, key string, load Loader, opts ...SetOption) (any, error) {
	if load == nil {
		return nil, ErrNilLoader
	}
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		v, err := load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("store: load %q: %w", key, err)
		}
		s.Set(key, v, opts...)
		return v, nil
	})
	return v, err
}
