package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"parking-system/internal/logging"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS parking (
		parking_number INTEGER PRIMARY KEY,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		type VARCHAR(10) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ticket (
		id SERIAL PRIMARY KEY,
		parking_number INTEGER NOT NULL REFERENCES parking(parking_number),
		vehicle_reg_number VARCHAR(10) NOT NULL,
		price DOUBLE PRECISION,
		in_time TIMESTAMPTZ NOT NULL,
		out_time TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ticket_vehicle_reg_number ON ticket(vehicle_reg_number)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_type_available ON parking(type, available)`,
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			logging.Error(ctx, "migration failed", "index", i, "error", err)
			return err
		}
	}
	logging.Info(ctx, "migrations completed", "driver", "postgres", "count", len(migrations))
	return nil
}
