//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Spok95/school-portal/internal/db"
)

type DBHandle struct {
	Pool   *pgxpool.Pool
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Reset очищает таблицы между тестами в одном контейнере.
func (h *DBHandle) Reset(ctx context.Context) error {
	_, err := h.Pool.Exec(ctx, `TRUNCATE identities, records`)
	return err
}

func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("portal"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	if err := waitReady(ctx, uri); err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	pool, err := db.Open(ctx, uri)
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{
		Pool:   pool,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// waitReady ждёт, пока контейнер начнёт принимать соединения
// (порт открывается раньше, чем postgres готов).
func waitReady(ctx context.Context, uri string) error {
	conn, err := sql.Open("postgres", uri)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := conn.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
