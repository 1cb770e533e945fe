package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Services that own a schema file under schema/.
const (
	ServiceCourse = "course"
	ServiceExam   = "exam"
	ServiceResult = "result"
	ServiceUser   = "user"
)

// Schema returns the DDL owned by the named service.
func Schema(service string) (string, error) {
	raw, err := schemaFS.ReadFile(fmt.Sprintf("schema/%s.sql", service))
	if err != nil {
		return "", fmt.Errorf("unknown service schema %q: %w", service, err)
	}
	return string(raw), nil
}

// Migrate applies the service schema. Statements are idempotent so it is
// safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB, service string) error {
	ddl, err := Schema(service)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate %s schema: %w", service, err)
	}
	return nil
}
