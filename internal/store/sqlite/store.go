package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"

	"parking-system/internal/parking"
)

const timeLayout = time.RFC3339Nano

// Store persists spots and tickets in a SQLite file. It implements both
// parking.SpotStore and parking.TicketStore.
type Store struct {
	db *sqlx.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := otelsql.Open("sqlite", dsn,
		otelsql.WithAttributes(semconv.DBSystemKey.String("sqlite")),
	)
	if err != nil {
		return nil, err
	}

	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(
		semconv.DBSystemKey.String("sqlite"),
	)); err != nil {
		db.Close()
		return nil, err
	}

	sqlxDB := sqlx.NewDb(db, "sqlite")
	// SQLite allows a single writer.
	sqlxDB.SetMaxOpenConns(1)

	if err := sqlxDB.PingContext(ctx); err != nil {
		sqlxDB.Close()
		return nil, err
	}

	if err := RunMigrations(ctx, sqlxDB); err != nil {
		sqlxDB.Close()
		return nil, err
	}

	return &Store{db: sqlxDB}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type spotRow struct {
	ParkingNumber int    `db:"parking_number"`
	Available     bool   `db:"available"`
	Type          string `db:"type"`
}

func (r spotRow) toSpot() parking.ParkingSpot {
	return parking.NewParkingSpot(r.ParkingNumber, parking.ParkingType(r.Type), r.Available)
}

type ticketRow struct {
	ID               int             `db:"id"`
	ParkingNumber    int             `db:"parking_number"`
	VehicleRegNumber string          `db:"vehicle_reg_number"`
	Price            sql.NullFloat64 `db:"price"`
	InTime           string          `db:"in_time"`
	OutTime          sql.NullString  `db:"out_time"`
	Type             string          `db:"type"`
	Available        bool            `db:"available"`
}

func (r ticketRow) toTicket() (parking.Ticket, error) {
	inTime, err := time.Parse(timeLayout, r.InTime)
	if err != nil {
		return parking.Ticket{}, fmt.Errorf("ticket %d in_time: %w", r.ID, err)
	}

	ticket := parking.Ticket{
		ID:               r.ID,
		VehicleRegNumber: r.VehicleRegNumber,
		Spot:             parking.NewParkingSpot(r.ParkingNumber, parking.ParkingType(r.Type), r.Available),
		InTime:           inTime,
	}
	if r.OutTime.Valid {
		outTime, err := time.Parse(timeLayout, r.OutTime.String)
		if err != nil {
			return parking.Ticket{}, fmt.Errorf("ticket %d out_time: %w", r.ID, err)
		}
		ticket.OutTime = &outTime
	}
	if r.Price.Valid {
		price := r.Price.Float64
		ticket.Price = &price
	}
	return ticket, nil
}

const ticketColumns = `
	t.id, t.parking_number, t.vehicle_reg_number, t.price, t.in_time, t.out_time,
	p.type, p.available
	FROM ticket t
	JOIN parking p ON p.parking_number = t.parking_number`

func (s *Store) EnsureSpots(ctx context.Context, spots []parking.ParkingSpot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT OR IGNORE INTO parking (parking_number, available, type) VALUES (?, ?, ?)`
	for _, spot := range spots {
		if _, err := tx.ExecContext(ctx, query, spot.ID, spot.Available, string(spot.ParkingType)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) NextAvailableSpot(ctx context.Context, parkingType parking.ParkingType) (int, bool, error) {
	var id sql.NullInt64
	query := `SELECT MIN(parking_number) FROM parking WHERE available = 1 AND type = ?`

	if err := s.db.GetContext(ctx, &id, query, string(parkingType)); err != nil {
		return 0, false, err
	}
	if !id.Valid {
		return 0, false, nil
	}
	return int(id.Int64), true, nil
}

func (s *Store) GetSpot(ctx context.Context, id int) (parking.ParkingSpot, error) {
	var row spotRow
	query := `SELECT parking_number, available, type FROM parking WHERE parking_number = ?`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return parking.ParkingSpot{}, fmt.Errorf("%w: %d", parking.ErrSpotNotFound, id)
		}
		return parking.ParkingSpot{}, err
	}
	return row.toSpot(), nil
}

// UpdateParking only occupies a spot that is still free, so concurrent
// writers cannot both claim it.
func (s *Store) UpdateParking(ctx context.Context, spot parking.ParkingSpot) error {
	query := `UPDATE parking SET available = 1 WHERE parking_number = ?`
	if !spot.Available {
		query = `UPDATE parking SET available = 0 WHERE parking_number = ? AND available = 1`
	}

	result, err := s.db.ExecContext(ctx, query, spot.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetSpot(ctx, spot.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d", parking.ErrSpotTaken, spot.ID)
	}
	return nil
}

func (s *Store) ListSpots(ctx context.Context) ([]parking.ParkingSpot, error) {
	var rows []spotRow
	query := `SELECT parking_number, available, type FROM parking ORDER BY parking_number`

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	spots := make([]parking.ParkingSpot, 0, len(rows))
	for _, row := range rows {
		spots = append(spots, row.toSpot())
	}
	return spots, nil
}

func (s *Store) SaveTicket(ctx context.Context, ticket *parking.Ticket) error {
	query := `
		INSERT INTO ticket (parking_number, vehicle_reg_number, price, in_time, out_time)
		VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		ticket.Spot.ID, ticket.VehicleRegNumber, nullPrice(ticket.Price),
		ticket.InTime.UTC().Format(timeLayout), nullTime(ticket.OutTime),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ticket.ID = int(id)
	return nil
}

func (s *Store) UpdateTicket(ctx context.Context, ticket *parking.Ticket) error {
	query := `UPDATE ticket SET price = ?, out_time = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, nullPrice(ticket.Price), nullTime(ticket.OutTime), ticket.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", parking.ErrTicketNotFound, ticket.ID)
	}
	return nil
}

func (s *Store) GetOpenTicket(ctx context.Context, vehicleRegNumber string) (*parking.Ticket, error) {
	var row ticketRow
	query := `SELECT` + ticketColumns + `
		WHERE t.vehicle_reg_number = ? AND t.out_time IS NULL
		ORDER BY t.id DESC
		LIMIT 1`

	if err := s.db.GetContext(ctx, &row, query, vehicleRegNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	ticket, err := row.toTicket()
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Store) CountTickets(ctx context.Context, vehicleRegNumber string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ticket WHERE vehicle_reg_number = ?`

	if err := s.db.GetContext(ctx, &count, query, vehicleRegNumber); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ListTickets(ctx context.Context, vehicleRegNumber string) ([]parking.Ticket, error) {
	var rows []ticketRow
	query := `SELECT` + ticketColumns + `
		WHERE t.vehicle_reg_number = ?
		ORDER BY t.id DESC`

	if err := s.db.SelectContext(ctx, &rows, query, vehicleRegNumber); err != nil {
		return nil, err
	}

	tickets := make([]parking.Ticket, 0, len(rows))
	for _, row := range rows {
		ticket, err := row.toTicket()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func nullPrice(price *float64) sql.NullFloat64 {
	if price == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *price, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}
