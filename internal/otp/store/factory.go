// Package store construye el Store de OTP concreto según configuración.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/dropDatabas3/avisame/internal/config"
	"github.com/dropDatabas3/avisame/internal/otp"
	"github.com/dropDatabas3/avisame/internal/otp/store/memory"
	"github.com/dropDatabas3/avisame/internal/otp/store/pg"
	"github.com/dropDatabas3/avisame/internal/otp/store/redis"
)

// Open crea el Store según cfg.Store.Driver y retorna, además, un closer
// (noop para memory).
func Open(ctx context.Context, cfg *config.Config) (otp.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memory.New(), noopCloser{}, nil
	case "pg":
		s, err := pg.Open(ctx, cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("store: open pg: %w", err)
		}
		return s, closerFunc(func() error { s.Close(); return nil }), nil
	case "redis":
		s := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.DB, cfg.Store.Redis.Prefix)
		return s, closerFunc(s.Close), nil
	default:
		return nil, nil, fmt.Errorf("store: driver desconocido %q", cfg.Store.Driver)
	}
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
