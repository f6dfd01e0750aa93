package bootstrap

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/projects-backend/internal/storage/postgres"
)

// Migrate applies pending schema migrations over a short-lived lib/pq handle.
func Migrate(ctx context.Context, dsn string) error {
	db, err := postgres.OpenSQL(ctx, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer db.Close()

	return postgres.MigrateUp(ctx, db)
}
