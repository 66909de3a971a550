package bootstrap

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGAdminStore implementa AdminStore sobre la tabla admin_user.
type PGAdminStore struct {
	pool *pgxpool.Pool
}

func NewPGAdminStore(pool *pgxpool.Pool) *PGAdminStore {
	return &PGAdminStore{pool: pool}
}

func (s *PGAdminStore) Ensure(ctx context.Context, email, passwordHash string) (bool, error) {
	// Upsert crea-o-promueve: si la cuenta existe se la marca admin y se
	// actualiza el hash; xmax = 0 distingue insert de update.
	var created bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO admin_user (id, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, is_admin = TRUE
		RETURNING (xmax = 0)
	`, uuid.NewString(), email, passwordHash).Scan(&created)
	if err != nil {
		return false, err
	}
	return created, nil
}
