package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" {
				t.Errorf("migration version %d missing up SQL", m.Version)
			}
			if m.Down == "" {
				t.Errorf("migration version %d missing down SQL", m.Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		db.SetMaxOpenConns(1)
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}
		if count == 0 {
			t.Error("expected at least one migration to be applied")
		}

		for _, table := range []string{"playlists", "tracks", "playlist_tracks", "artists", "track_artists"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount)
		if err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount >= count {
			t.Errorf("expected migration count to decrease after rollback, got %d (was %d)", newCount, count)
		}
	})

	t.Run("Comment Semicolons", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		db.SetMaxOpenConns(1)
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}

		script := `-- identity is remote; local rows are
-- refreshed on every pass.
CREATE TABLE samples (id INTEGER PRIMARY KEY);

-- seed row; removed later
INSERT INTO samples (id) VALUES (1)`

		if err := runStatements(db, script, 99, true); err != nil {
			t.Fatalf("semicolon inside a comment broke statement splitting: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM samples").Scan(&count); err != nil {
			t.Fatalf("failed to query samples: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row, got %d", count)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		db.SetMaxOpenConns(1)
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
