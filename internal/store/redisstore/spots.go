// Package redisstore keeps spot availability in Redis so several API
// instances can allocate from one lot. Claims are atomic per spot: an
// instance that loses a claim gets parking.ErrSpotTaken and moves on.
package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"parking-system/internal/parking"
)

const (
	fieldType      = "type"
	fieldAvailable = "available"
)

// SpotStore implements parking.SpotStore. Each spot is a hash; free spots of
// a type are members of a sorted set scored by spot number.
type SpotStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewSpotStore(client *redis.Client, prefix string) *SpotStore {
	if prefix == "" {
		prefix = "parking"
	}
	return &SpotStore{redis: client, prefix: prefix}
}

func (s *SpotStore) spotKey(id int) string {
	return fmt.Sprintf("%s:spot:%d", s.prefix, id)
}

func (s *SpotStore) availableKey(parkingType parking.ParkingType) string {
	return fmt.Sprintf("%s:available:%s", s.prefix, parkingType)
}

func (s *SpotStore) allKey() string {
	return s.prefix + ":spots"
}

func (s *SpotStore) EnsureSpots(ctx context.Context, spots []parking.ParkingSpot) error {
	for _, spot := range spots {
		created, err := s.redis.HSetNX(ctx, s.spotKey(spot.ID), fieldType, string(spot.ParkingType)).Result()
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.spotKey(spot.ID), fieldAvailable, formatBool(spot.Available))
			pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: float64(spot.ID), Member: spot.ID})
			if spot.Available {
				pipe.ZAdd(ctx, s.availableKey(spot.ParkingType), redis.Z{Score: float64(spot.ID), Member: spot.ID})
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SpotStore) NextAvailableSpot(ctx context.Context, parkingType parking.ParkingType) (int, bool, error) {
	members, err := s.redis.ZRange(ctx, s.availableKey(parkingType), 0, 0).Result()
	if err != nil {
		return 0, false, err
	}
	if len(members) == 0 {
		return 0, false, nil
	}

	id, err := strconv.Atoi(members[0])
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *SpotStore) GetSpot(ctx context.Context, id int) (parking.ParkingSpot, error) {
	fields, err := s.redis.HGetAll(ctx, s.spotKey(id)).Result()
	if err != nil {
		return parking.ParkingSpot{}, err
	}
	if len(fields) == 0 {
		return parking.ParkingSpot{}, fmt.Errorf("%w: %d", parking.ErrSpotNotFound, id)
	}
	return toSpot(id, fields), nil
}

// UpdateParking claims a spot by removing it from the free set. The removal
// runs in the same MULTI as the hash update, and a removal count of zero
// means another instance claimed the spot first.
func (s *SpotStore) UpdateParking(ctx context.Context, spot parking.ParkingSpot) error {
	current, err := s.GetSpot(ctx, spot.ID)
	if err != nil {
		return err
	}

	var removed *redis.IntCmd
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if spot.Available {
			pipe.ZAdd(ctx, s.availableKey(current.ParkingType), redis.Z{Score: float64(spot.ID), Member: spot.ID})
		} else {
			removed = pipe.ZRem(ctx, s.availableKey(current.ParkingType), spot.ID)
		}
		pipe.HSet(ctx, s.spotKey(spot.ID), fieldAvailable, formatBool(spot.Available))
		return nil
	})
	if err != nil {
		return err
	}
	if removed != nil && removed.Val() == 0 {
		return fmt.Errorf("%w: %d", parking.ErrSpotTaken, spot.ID)
	}
	return nil
}

func (s *SpotStore) ListSpots(ctx context.Context) ([]parking.ParkingSpot, error) {
	members, err := s.redis.ZRange(ctx, s.allKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	ids := make([]int, len(members))
	for i, member := range members {
		id, err := strconv.Atoi(member)
		if err != nil {
			return nil, err
		}
		ids[i] = id
		cmds[i] = pipe.HGetAll(ctx, s.spotKey(id))
	}
	if len(members) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	spots := make([]parking.ParkingSpot, 0, len(members))
	for i, cmd := range cmds {
		spots = append(spots, toSpot(ids[i], cmd.Val()))
	}
	return spots, nil
}

func toSpot(id int, fields map[string]string) parking.ParkingSpot {
	return parking.NewParkingSpot(id, parking.ParkingType(fields[fieldType]), fields[fieldAvailable] == "1")
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
