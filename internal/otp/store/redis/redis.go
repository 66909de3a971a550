// Package redis implementa el Store de OTP sobre Redis.
//
// Supersede es un SET plano (pisa al código previo). Consume corre como
// script Lua para que comparar y marcar consumido sea una sola operación
// atómica del lado del server.
package redis

import (
	"context"
	"encoding/json"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/avisame/internal/otp"
)

type record struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}

// consumeScript: KEYS[1] = clave, ARGV[1] = código, ARGV[2] = now (unix seconds).
// Retorna 0 accepted, 1 expired, 2 mismatch.
var consumeScript = rdb.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 2 end
local rec = cjson.decode(raw)
if rec.consumed or rec.code ~= ARGV[1] then return 2 end
if tonumber(ARGV[2]) > rec.expires_unix then return 1 end
rec.consumed = true
redis.call("SET", KEYS[1], cjson.encode(rec), "KEEPTTL")
return 0
`)

type Store struct {
	c      *rdb.Client
	prefix string
}

func New(addr string, db int, prefix string) *Store {
	if prefix == "" {
		prefix = "otp:"
	}
	return &Store{c: rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), prefix: prefix}
}

// NewWithClient permite inyectar un cliente ya configurado (tests, TLS).
func NewWithClient(c *rdb.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "otp:"
	}
	return &Store{c: c, prefix: prefix}
}

func (s *Store) key(subjectID string, purpose otp.Purpose) string {
	return s.prefix + subjectID + ":" + string(purpose)
}

type wireRecord struct {
	record
	// expires_unix duplica ExpiresAt en epoch seconds para que el script Lua
	// compare sin parsear RFC3339.
	ExpiresUnix int64 `json:"expires_unix"`
}

func (s *Store) Supersede(ctx context.Context, code *otp.Code) error {
	rec := wireRecord{
		record: record{
			Code:      code.Code,
			IssuedAt:  code.IssuedAt,
			ExpiresAt: code.ExpiresAt,
		},
		ExpiresUnix: code.ExpiresAt.Unix(),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// TTL con margen doble: la clave tiene que sobrevivir a la expiración
	// lógica para poder responder EXPIRED en vez de MISMATCH.
	ttl := 2 * time.Until(code.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.c.Set(ctx, s.key(code.SubjectID, code.Purpose), b, ttl).Err()
}

func (s *Store) Consume(ctx context.Context, subjectID string, purpose otp.Purpose, code string, now time.Time) (otp.Outcome, error) {
	n, err := consumeScript.Run(ctx, s.c, []string{s.key(subjectID, purpose)}, code, now.Unix()).Int()
	if err != nil {
		return otp.OutcomeMismatch, err
	}
	switch n {
	case 0:
		return otp.OutcomeAccepted, nil
	case 1:
		return otp.OutcomeExpired, nil
	default:
		return otp.OutcomeMismatch, nil
	}
}

// DeleteExpired es un no-op: Redis poda solo por TTL de clave.
func (s *Store) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

// Client expone el cliente subyacente para compartir la conexión (rate
// limiter, readiness).
func (s *Store) Client() *rdb.Client { return s.c }

func (s *Store) Close() error { return s.c.Close() }
