package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PGAccounts struct {
	pool *pgxpool.Pool
}

func NewPGAccounts(pool *pgxpool.Pool) *PGAccounts {
	return &PGAccounts{pool: pool}
}

func (s *PGAccounts) Create(ctx context.Context, a Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (uid, email, password_hash, disabled, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, a.UID, a.Email, a.PasswordHash, a.Disabled, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (s *PGAccounts) ByEmail(ctx context.Context, email string) (Account, error) {
	return s.one(ctx, `
		SELECT uid, email, password_hash, disabled, created_at
		FROM identities
		WHERE lower(email) = lower($1)
	`, email)
}

func (s *PGAccounts) ByUID(ctx context.Context, uid string) (Account, error) {
	return s.one(ctx, `
		SELECT uid, email, password_hash, disabled, created_at
		FROM identities
		WHERE uid = $1
	`, uid)
}

func (s *PGAccounts) Delete(ctx context.Context, uid string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE uid = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGAccounts) one(ctx context.Context, sql string, arg string) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&a.UID, &a.Email, &a.PasswordHash, &a.Disabled, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}
