package cache

import (
	"context"
	"fmt"
)

// TieredStore layers a fast in-memory tier over a durable tier. The durable
// tier is authoritative: writes land there first and key listings come from
// it. Durable hits are promoted into the fast tier.
type TieredStore struct {
	fast    Store
	durable Store
}

// NewTieredStore combines a fast and a durable Store.
func NewTieredStore(fast, durable Store) *TieredStore {
	return &TieredStore{fast: fast, durable: durable}
}

func (s *TieredStore) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok, err := s.fast.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	v, ok, err := s.durable.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	if err := s.fast.Set(ctx, key, v); err != nil {
		return "", false, fmt.Errorf("promote %s: %w", key, err)
	}
	return v, true, nil
}

func (s *TieredStore) Set(ctx context.Context, key, value string) error {
	if err := s.durable.Set(ctx, key, value); err != nil {
		return err
	}
	return s.fast.Set(ctx, key, value)
}

func (s *TieredStore) Delete(ctx context.Context, key string) error {
	if err := s.durable.Delete(ctx, key); err != nil {
		return err
	}
	return s.fast.Delete(ctx, key)
}

func (s *TieredStore) Keys(ctx context.Context) ([]string, error) {
	return s.durable.Keys(ctx)
}

// Ping checks the durable tier when it supports it.
func (s *TieredStore) Ping(ctx context.Context) error {
	if p, ok := s.durable.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
