package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last table step; its presence means the schema is in place.
const sentinelTable = "public.reminders"

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id          TEXT        PRIMARY KEY,
  name        TEXT,
  preferences JSONB,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                BIGSERIAL   PRIMARY KEY,
  user_id           TEXT        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  title             TEXT        NOT NULL,
  original_filename TEXT        NOT NULL,
  mime_type         TEXT        NOT NULL,
  storage_key       TEXT        NOT NULL UNIQUE,
  uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  summary           TEXT,
  action_items      JSONB       NOT NULL DEFAULT '[]'::jsonb,
  tags              JSONB       NOT NULL DEFAULT '[]'::jsonb,
  status            TEXT        NOT NULL DEFAULT 'pending'
                    CHECK (status IN ('pending', 'processing', 'processed', 'failed'))
);`,
	},
	{
		Name: "create_index_documents_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents (user_id, uploaded_at DESC);`,
	},
	{
		Name: "create_table_reminders",
		SQL: `CREATE TABLE IF NOT EXISTS reminders (
  id          BIGSERIAL   PRIMARY KEY,
  user_id     TEXT        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  document_id BIGINT      REFERENCES documents (id) ON DELETE CASCADE,
  title       TEXT        NOT NULL,
  description TEXT,
  due_date    TIMESTAMPTZ NOT NULL,
  completed   BOOLEAN     NOT NULL DEFAULT false,
  priority    TEXT        NOT NULL DEFAULT 'medium'
              CHECK (priority IN ('high', 'medium', 'low'))
);`,
	},
	{
		Name: "create_index_reminders_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reminders_user_id ON reminders (user_id, due_date);`,
	},
	{
		Name: "create_index_reminders_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reminders_document_id ON reminders (document_id);`,
	},
}

// EnsureMigrated checks for the sentinel table and runs the schema steps if it is missing.
// Every step is idempotent, so a partially applied schema is completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
