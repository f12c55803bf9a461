//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/Spok95/school-portal/internal/db"
	"github.com/Spok95/school-portal/internal/testutil/testdb"
)

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	// testdb.Start уже применил миграции; повторный прогон ничего не ломает
	if err := db.Migrate(ctx, h.Pool); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"identities", "records"} {
		var exists bool
		err := h.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table,
		).Scan(&exists)
		if err != nil {
			t.Fatal(err)
		}
		if !exists {
			t.Fatalf("table %s missing after migrations", table)
		}
	}
}
