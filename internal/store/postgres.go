package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/school-portal/internal/ctxutil"
	"github.com/Spok95/school-portal/internal/metrics"
)

// Postgres keeps one jsonb document per (collection, key) pair, i.e. per
// first two path segments. Deeper paths are edited inside the document under
// a row lock; shallower reads assemble the collection.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Read(ctx context.Context, path string) (raw json.RawMessage, found bool, err error) {
	segs, err := Split(path)
	if err != nil {
		return nil, false, err
	}
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	defer observe("read", time.Now(), &err)

	var v any
	if len(segs) == 1 {
		v, err = p.readCollection(ctx, segs[0])
	} else {
		v, err = p.readDoc(ctx, p.pool, segs[0], segs[1], false)
		if err == nil {
			v, _ = getAt(v, segs[2:])
		}
	}
	if err != nil {
		return nil, false, wrap("read", path, err)
	}
	if v == nil {
		return nil, false, nil
	}
	raw, err = encode(v)
	if err != nil {
		return nil, false, wrap("read", path, err)
	}
	return raw, true, nil
}

func (p *Postgres) Write(ctx context.Context, path string, value any) (err error) {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return wrap("write", path, err)
	}
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	defer observe("write", time.Now(), &err)

	if len(segs) == 1 {
		err = p.replaceCollection(ctx, segs[0], v)
	} else {
		err = p.mutate(ctx, segs[0], segs[1], func(doc any) (any, error) {
			return setAt(doc, segs[2:], v), nil
		})
	}
	if err != nil {
		return wrap("write", path, err)
	}
	return nil
}

func (p *Postgres) Patch(ctx context.Context, path string, partial map[string]any) (err error) {
	segs, err := Split(path)
	if err != nil {
		return err
	}
	ctx, cancel := ctxutil.WithStoreTimeout(ctx)
	defer cancel()
	defer observe("patch", time.Now(), &err)

	if len(segs) == 1 {
		err = p.patchCollection(ctx, segs[0], partial)
	} else {
		err = p.mutate(ctx, segs[0], segs[1], func(doc any) (any, error) {
			return mergeAt(doc, segs[2:], partial)
		})
	}
	if err != nil {
		return wrap("patch", path, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	return p.Write(ctx, path, nil)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *Postgres) readDoc(ctx context.Context, q querier, collection, key string, forUpdate bool) (any, error) {
	sql := `SELECT doc FROM records WHERE collection = $1 AND key = $2`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var raw []byte
	err := q.QueryRow(ctx, sql, collection, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (p *Postgres) readCollection(ctx context.Context, collection string) (any, error) {
	rows, err := p.pool.Query(ctx, `SELECT key, doc FROM records WHERE collection = $1`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
		}
		out[key] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// mutate applies fn to one document under SELECT ... FOR UPDATE. A nil result
// removes the row.
func (p *Postgres) mutate(ctx context.Context, collection, key string, fn func(doc any) (any, error)) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		doc, err := p.readDoc(ctx, tx, collection, key, true)
		if err != nil {
			return err
		}
		next, err := fn(doc)
		if err != nil {
			return err
		}
		return putDoc(ctx, tx, collection, key, next)
	})
}

func (p *Postgres) replaceCollection(ctx context.Context, collection string, v any) error {
	children, ok := v.(map[string]any)
	if v != nil && !ok {
		return fmt.Errorf("%w: collection %q must hold an object", ErrInvalidPath, collection)
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM records WHERE collection = $1`, collection); err != nil {
			return err
		}
		for key, doc := range children {
			if err := putDoc(ctx, tx, collection, key, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) patchCollection(ctx context.Context, collection string, partial map[string]any) error {
	docs := make(map[string]any, len(partial))
	for key, v := range partial {
		if err := ValidKey(key); err != nil {
			return err
		}
		doc, err := normalize(v)
		if err != nil {
			return err
		}
		docs[key] = doc
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for key, doc := range docs {
			if err := putDoc(ctx, tx, collection, key, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func putDoc(ctx context.Context, tx pgx.Tx, collection, key string, doc any) error {
	if doc == nil {
		_, err := tx.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND key = $2`, collection, key)
		return err
	}
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO records (collection, key, doc, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (collection, key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, key, string(raw))
	return err
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveStoreOp(op, time.Since(start), *err)
}
