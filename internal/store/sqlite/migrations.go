package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"parking-system/internal/logging"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS parking (
		parking_number INTEGER PRIMARY KEY,
		available BOOLEAN NOT NULL DEFAULT 1,
		type TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ticket (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parking_number INTEGER NOT NULL REFERENCES parking(parking_number),
		vehicle_reg_number TEXT NOT NULL,
		price REAL,
		in_time TEXT NOT NULL,
		out_time TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ticket_vehicle_reg_number ON ticket(vehicle_reg_number)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_type_available ON parking(type, available)`,
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			logging.Error(ctx, "migration failed", "index", i, "error", err)
			return err
		}
	}
	logging.Info(ctx, "migrations completed", "driver", "sqlite", "count", len(migrations))
	return nil
}
