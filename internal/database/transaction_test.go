package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
)

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	if err := db.migrate(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := db.migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO capsules (id, sender, message, open_date, created_at) VALUES (?, ?, ?, ?, ?)",
			"tx-rollback", "Tx", "m", "2030-01-01T00:00", 0); err != nil {
			return err
		}
		return fmt.Errorf("force rollback")
	})
	if err == nil {
		t.Fatalf("expected error from WithTx")
	}

	var count int
	if err := db.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM capsules WHERE id = ?", "tx-rollback").Scan(&count); err != nil {
		t.Fatalf("query count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to remove capsule, got count %d", count)
	}
}
