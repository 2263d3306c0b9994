// Package svc builds the long-lived services from configuration and hands
// them to the API server and CLI commands.
package svc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/cache"
	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/forecast"
	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/internal/monitor"
	"github.com/seenimoa/agriprice/internal/remote"
	"github.com/seenimoa/agriprice/internal/store"
	"github.com/seenimoa/agriprice/internal/store/postgres"
	"github.com/seenimoa/agriprice/internal/store/sqlite"
)

type ServiceContext struct {
	Config *config.Config
	Clock  infra.Clock

	Catalog    *catalog.Catalog
	Store      store.KV
	Cache      *cache.Cache
	Source     *remote.Source
	Forecaster forecast.Forecaster
	Monitor    *monitor.Monitor
}

// NewServiceContext wires every service. The caller owns the returned
// context and must Close it.
func NewServiceContext(ctx context.Context, c *config.Config) (*ServiceContext, error) {
	if c == nil {
		return nil, errors.New("svc: config is required")
	}
	clock := infra.Clock(infra.SystemClock{})

	cat := catalog.Default()
	if f := strings.TrimSpace(c.Catalog.File); f != "" {
		loaded, err := catalog.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("svc: load catalog: %w", err)
		}
		cat = loaded
	}

	kv, err := OpenStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	cacheOpts := []cache.Option{cache.WithClock(clock)}
	if ttl := c.Cache.TTL(); ttl > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(ttl))
	}
	ch := cache.New(kv, cacheOpts...)

	src := remote.New(c.Source, remote.WithClock(clock))
	fc := forecast.New(c.Forecast, clock)

	mon, err := monitor.New(cat, ch, src, fc,
		monitor.WithClock(clock),
		monitor.WithWorkers(c.Monitor.Workers))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	logx.Infof("svc: ready store=%s commodities=%d ttl=%s", c.Store.Driver, cat.Len(), ch.TTL())
	return &ServiceContext{
		Config:     c,
		Clock:      clock,
		Catalog:    cat,
		Store:      kv,
		Cache:      ch,
		Source:     src,
		Forecaster: fc,
		Monitor:    mon,
	}, nil
}

// Close releases the store.
func (s *ServiceContext) Close() error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// OpenStore opens the configured key-value backend.
func OpenStore(ctx context.Context, c config.StoreConfig) (store.KV, error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "memory":
		return store.NewMemory(), nil
	case "", "sqlite":
		if dir := filepath.Dir(c.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("svc: create store dir: %w", err)
			}
		}
		kv, err := sqlite.New(c.Path)
		if err != nil {
			return nil, fmt.Errorf("svc: %w", err)
		}
		return kv, nil
	case "postgres":
		kv, err := postgres.New(ctx, postgres.Options{DSN: c.DSN, Table: c.Table, MaxConns: c.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("svc: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("svc: unknown store driver %q", c.Driver)
	}
}
