package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/amenity-reserve/internal/devbackend"
	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// CatalogRepo is the PostgreSQL store behind the development backend.
type CatalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo { return &CatalogRepo{pool: pool} }

var _ devbackend.Store = (*CatalogRepo)(nil)

// Open connects and pings with the same pool limits everywhere.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func (r *CatalogRepo) Amenities(ctx context.Context) ([]reservation.Amenity, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM amenities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []reservation.Amenity{}
	for rows.Next() {
		var a reservation.Amenity
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) Questions(ctx context.Context) ([]reservation.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, question FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []reservation.Question{}
	for rows.Next() {
		var q reservation.Question
		if err := rows.Scan(&q.ID, &q.Question); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateReservation(ctx context.Context, res devbackend.Reservation) (int64, error) {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
INSERT INTO reservations (resource_id, start_time, end_time, answers)
VALUES ($1, $2, $3, $4)
RETURNING id`, res.ResourceID, res.Start, res.End, answers).Scan(&id)
	return id, err
}

func (r *CatalogRepo) GetReservation(ctx context.Context, id int64) (devbackend.Reservation, error) {
	var res devbackend.Reservation
	var answers []byte
	err := r.pool.QueryRow(ctx, `
SELECT id, resource_id, start_time, end_time, answers, created_at
FROM reservations WHERE id=$1`, id).
		Scan(&res.ID, &res.ResourceID, &res.Start, &res.End, &answers, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return devbackend.Reservation{}, reservation.ErrNotFound
		}
		return devbackend.Reservation{}, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return devbackend.Reservation{}, fmt.Errorf("decode answers: %w", err)
	}
	return res, nil
}

// Seed inserts amenities and questions, leaving existing ids alone.
func (r *CatalogRepo) Seed(ctx context.Context, as []reservation.Amenity, qs []reservation.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, a := range as {
		if _, err := tx.Exec(ctx, `INSERT INTO amenities (id, name) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`, a.ID, a.Name); err != nil {
			return fmt.Errorf("seed amenity %d: %w", a.ID, err)
		}
	}
	for _, q := range qs {
		if _, err := tx.Exec(ctx, `INSERT INTO questions (id, question) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`, q.ID, q.Question); err != nil {
			return fmt.Errorf("seed question %d: %w", q.ID, err)
		}
	}
	return tx.Commit(ctx)
}
