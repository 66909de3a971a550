package rate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: misma ventana fija que RedisLimiter pero sobre go-cache,
// para correr sin Redis (dev, single-node). Los contadores expiran solos
// con el TTL de la ventana.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, window),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	// go-cache no tiene un "incr o crea" atómico: el lock serializa.
	l.mu.Lock()
	var hits int64
	if _, ok := l.c.Get(k); !ok {
		l.c.Set(k, int64(1), l.Window)
		hits = 1
	} else {
		n, err := l.c.IncrementInt64(k, 1)
		if err != nil {
			// la clave expiró entre Get e Increment
			l.c.Set(k, int64(1), l.Window)
			n = 1
		}
		hits = n
	}
	l.mu.Unlock()

	res := Result{
		Allowed:     hits <= l.Max,
		Remaining:   l.Max - hits,
		CurrentHits: hits,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.Window).Sub(now)
	}
	return res, nil
}
