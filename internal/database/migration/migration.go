package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email               TEXT        NOT NULL UNIQUE,
  name                TEXT        NOT NULL DEFAULT '',
  subscription_status TEXT        NOT NULL DEFAULT 'inactive',
  subscription_expiry TIMESTAMPTZ,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_managed_roles",
		SQL: `CREATE TABLE IF NOT EXISTS managed_roles (
  email      TEXT        PRIMARY KEY,
  role       TEXT        NOT NULL CHECK (role IN ('viewer', 'editor', 'admin')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_payments",
		SQL: `CREATE TABLE IF NOT EXISTS payments (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email        TEXT        NOT NULL,
  reference    TEXT        NOT NULL UNIQUE,
  amount_cents BIGINT      NOT NULL CHECK (amount_cents >= 0),
  paid_until   TIMESTAMPTZ NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_users_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);`,
	},
	{
		Name: "create_index_users_subscription_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_users_subscription_status ON users (subscription_status);`,
	},
	{
		Name: "create_index_payments_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_payments_email ON payments (email);`,
	},
}

// EnsureMigrated checks if the 'users' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.users') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
