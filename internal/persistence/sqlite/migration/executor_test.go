package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteExecutor_InitializeVersionTable(t *testing.T) {
	executor := NewSQLiteExecutor(setupTestDB(t))
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable should be idempotent: %v", err)
	}
}

func TestSQLiteExecutor_ExecuteAndRecord(t *testing.T) {
	db := setupTestDB(t)
	executor := NewSQLiteExecutor(db)
	executor.now = func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}

	migration := Migration{
		Version:  "001",
		SQL:      "CREATE TABLE rooms (id TEXT PRIMARY KEY);\nINSERT INTO rooms (id) VALUES ('room-1');",
		FilePath: "001_rooms.sql",
		Checksum: "abc",
	}
	if err := executor.ExecuteMigration(ctx, migration); err != nil {
		t.Fatalf("ExecuteMigration failed: %v", err)
	}
	if err := executor.RecordMigration(ctx, migration, 15*time.Millisecond); err != nil {
		t.Fatalf("RecordMigration failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected one room row, got %d (%v)", count, err)
	}

	applied, err := executor.GetAppliedVersions(ctx)
	if err != nil {
		t.Fatalf("GetAppliedVersions failed: %v", err)
	}
	if len(applied) != 1 || applied[0].Version != "001" || applied[0].Checksum != "abc" {
		t.Fatalf("unexpected applied versions %+v", applied)
	}
	if applied[0].ExecutionTime != 15*time.Millisecond {
		t.Fatalf("unexpected execution time %v", applied[0].ExecutionTime)
	}
}

func TestSQLiteExecutor_ExecuteMigration_Rollback(t *testing.T) {
	db := setupTestDB(t)
	executor := NewSQLiteExecutor(db)
	ctx := context.Background()

	migration := Migration{
		Version: "001",
		SQL:     "CREATE TABLE rooms (id TEXT PRIMARY KEY);\nINSERT INTO missing_table VALUES (1);",
	}
	err := executor.ExecuteMigration(ctx, migration)
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='rooms'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected rooms table to be rolled back, got %q (%v)", name, err)
	}
}

func TestSQLiteExecutor_ExecuteMigration_EmptySQL(t *testing.T) {
	executor := NewSQLiteExecutor(setupTestDB(t))
	err := executor.ExecuteMigration(context.Background(), Migration{Version: "001", SQL: "-- only a comment"})
	var migrationErr *MigrationError
	if !errors.As(err, &migrationErr) {
		t.Fatalf("expected MigrationError, got %v", err)
	}
}
