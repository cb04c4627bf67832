package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"parking-system/internal/parking"
)

// Store implements parking.SpotStore and parking.TicketStore on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectTicket = `
	SELECT t.id, t.parking_number, t.vehicle_reg_number, t.price, t.in_time, t.out_time,
		p.type, p.available
	FROM ticket t
	JOIN parking p ON p.parking_number = t.parking_number`

func (s *Store) EnsureSpots(ctx context.Context, spots []parking.ParkingSpot) error {
	batch := &pgx.Batch{}
	for _, spot := range spots {
		batch.Queue(`
			INSERT INTO parking (parking_number, available, type)
			VALUES ($1, $2, $3)
			ON CONFLICT (parking_number) DO NOTHING`,
			spot.ID, spot.Available, string(spot.ParkingType))
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *Store) NextAvailableSpot(ctx context.Context, parkingType parking.ParkingType) (int, bool, error) {
	var id *int32
	err := s.pool.QueryRow(ctx,
		`SELECT MIN(parking_number) FROM parking WHERE available = TRUE AND type = $1`,
		string(parkingType),
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	if id == nil {
		return 0, false, nil
	}
	return int(*id), true, nil
}

func (s *Store) GetSpot(ctx context.Context, id int) (parking.ParkingSpot, error) {
	var (
		available   bool
		parkingType string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT available, type FROM parking WHERE parking_number = $1`, id,
	).Scan(&available, &parkingType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return parking.ParkingSpot{}, fmt.Errorf("%w: %d", parking.ErrSpotNotFound, id)
		}
		return parking.ParkingSpot{}, err
	}
	return parking.NewParkingSpot(id, parking.ParkingType(parkingType), available), nil
}

// UpdateParking only occupies a spot that is still free, so two instances
// sharing the database cannot both claim it.
func (s *Store) UpdateParking(ctx context.Context, spot parking.ParkingSpot) error {
	query := `UPDATE parking SET available = TRUE WHERE parking_number = $1`
	if !spot.Available {
		query = `UPDATE parking SET available = FALSE WHERE parking_number = $1 AND available = TRUE`
	}

	tag, err := s.pool.Exec(ctx, query, spot.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetSpot(ctx, spot.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d", parking.ErrSpotTaken, spot.ID)
	}
	return nil
}

func (s *Store) ListSpots(ctx context.Context) ([]parking.ParkingSpot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT parking_number, available, type FROM parking ORDER BY parking_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []parking.ParkingSpot
	for rows.Next() {
		var (
			id          int
			available   bool
			parkingType string
		)
		if err := rows.Scan(&id, &available, &parkingType); err != nil {
			return nil, err
		}
		spots = append(spots, parking.NewParkingSpot(id, parking.ParkingType(parkingType), available))
	}
	return spots, rows.Err()
}

func (s *Store) SaveTicket(ctx context.Context, ticket *parking.Ticket) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO ticket (parking_number, vehicle_reg_number, price, in_time, out_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		ticket.Spot.ID, ticket.VehicleRegNumber, ticket.Price, ticket.InTime, ticket.OutTime,
	).Scan(&ticket.ID)
}

func (s *Store) UpdateTicket(ctx context.Context, ticket *parking.Ticket) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ticket SET price = $1, out_time = $2 WHERE id = $3`,
		ticket.Price, ticket.OutTime, ticket.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", parking.ErrTicketNotFound, ticket.ID)
	}
	return nil
}

func (s *Store) GetOpenTicket(ctx context.Context, vehicleRegNumber string) (*parking.Ticket, error) {
	row := s.pool.QueryRow(ctx, selectTicket+`
		WHERE t.vehicle_reg_number = $1 AND t.out_time IS NULL
		ORDER BY t.id DESC
		LIMIT 1`, vehicleRegNumber)

	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *Store) CountTickets(ctx context.Context, vehicleRegNumber string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ticket WHERE vehicle_reg_number = $1`, vehicleRegNumber,
	).Scan(&count)
	return count, err
}

func (s *Store) ListTickets(ctx context.Context, vehicleRegNumber string) ([]parking.Ticket, error) {
	rows, err := s.pool.Query(ctx, selectTicket+`
		WHERE t.vehicle_reg_number = $1
		ORDER BY t.id DESC`, vehicleRegNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []parking.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (parking.Ticket, error) {
	var (
		ticket        parking.Ticket
		parkingNumber int
		parkingType   string
		available     bool
		inTime        time.Time
	)
	err := row.Scan(
		&ticket.ID, &parkingNumber, &ticket.VehicleRegNumber, &ticket.Price,
		&inTime, &ticket.OutTime, &parkingType, &available,
	)
	if err != nil {
		return parking.Ticket{}, err
	}
	ticket.InTime = inTime
	ticket.Spot = parking.NewParkingSpot(parkingNumber, parking.ParkingType(parkingType), available)
	return ticket, nil
}
