// Package pg implementa el Store de OTP sobre PostgreSQL (pgx).
//
// Una fila por (subject_id, purpose): el upsert con ON CONFLICT es la
// supersesión atómica, y el consume es un UPDATE condicional. No hace falta
// lock explícito: ambas mutaciones son una sola sentencia.
package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/avisame/internal/otp"
	migrations "github.com/dropDatabas3/avisame/migrations/postgres"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open crea el pool, verifica conectividad y aplica el esquema embebido.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := New(pool)
	if err := s.RunMigrations(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: migrations: %w", err)
	}
	return s, nil
}

// RunMigrations ejecuta los *.sql del FS en orden de nombre. El esquema usa
// IF NOT EXISTS, así que correrlas en cada arranque es seguro.
func (s *Store) RunMigrations(ctx context.Context, fsys fs.FS) error {
	files, err := sqlFiles(fsys)
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	return nil
}

func sqlFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Pool expone el pool subyacente para compartir la conexión (bootstrap,
// readiness).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Supersede(ctx context.Context, code *otp.Code) error {
	// El upsert pisa cualquier código previo del par y resetea consumed_at:
	// después de esta sentencia hay exactamente un código vigente.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO otp_code (subject_id, purpose, code, issued_at, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		ON CONFLICT (subject_id, purpose) DO UPDATE
		SET code = EXCLUDED.code,
		    issued_at = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at,
		    consumed_at = NULL
	`, code.SubjectID, string(code.Purpose), code.Code, code.IssuedAt, code.ExpiresAt)
	return err
}

func (s *Store) Consume(ctx context.Context, subjectID string, purpose otp.Purpose, code string, now time.Time) (otp.Outcome, error) {
	// Check-and-mark en una sola sentencia condicional.
	var id string
	err := s.pool.QueryRow(ctx, `
		UPDATE otp_code SET consumed_at = $5
		WHERE subject_id = $1 AND purpose = $2 AND code = $3
		  AND consumed_at IS NULL AND expires_at >= $4
		RETURNING subject_id
	`, subjectID, string(purpose), code, now, now).Scan(&id)
	if err == nil {
		return otp.OutcomeAccepted, nil
	}
	if err != pgx.ErrNoRows {
		return otp.OutcomeMismatch, err
	}

	// No consumió: distinguir EXPIRED (coincide pero venció) de MISMATCH.
	var storedCode string
	var expiresAt time.Time
	var consumedAt *time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT code, expires_at, consumed_at FROM otp_code
		WHERE subject_id = $1 AND purpose = $2
	`, subjectID, string(purpose)).Scan(&storedCode, &expiresAt, &consumedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return otp.OutcomeMismatch, nil
		}
		return otp.OutcomeMismatch, err
	}
	// Vencido sólo cuando now > expires_at: en el instante exacto del
	// vencimiento el código todavía se acepta, igual que memory y redis.
	if storedCode == code && consumedAt == nil && expiresAt.Before(now) {
		return otp.OutcomeExpired, nil
	}
	return otp.OutcomeMismatch, nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM otp_code WHERE expires_at < $1 OR consumed_at IS NOT NULL`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
