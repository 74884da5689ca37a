package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"camioBack/internal/models"
)

type EmptyReturnRepository struct {
	DB *sql.DB
}

func (r *EmptyReturnRepository) CreateEmptyReturn(ctx context.Context, er models.EmptyReturn) (models.EmptyReturn, error) {
	query := `
               INSERT INTO empty_returns (transporter_id, from_city, to_city, return_date, created_at)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id
       `
	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		er.TransporterID, er.FromCity, er.ToCity, er.ReturnDate, now,
	).Scan(&er.ID)
	if err != nil {
		return models.EmptyReturn{}, err
	}
	er.CreatedAt = now
	return er, nil
}

func (r *EmptyReturnRepository) GetEmptyReturnByID(ctx context.Context, id int) (models.EmptyReturn, error) {
	var er models.EmptyReturn
	query := `
               SELECT id, transporter_id, from_city, to_city, return_date, consumed_by, created_at, updated_at
               FROM empty_returns WHERE id = $1
       `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&er.ID, &er.TransporterID, &er.FromCity, &er.ToCity, &er.ReturnDate, &er.ConsumedBy, &er.CreatedAt, &er.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EmptyReturn{}, models.ErrNoRecord
		}
		return models.EmptyReturn{}, err
	}
	return er, nil
}

// ListOpenByRoute returns unconsumed empty returns on a route, soonest first.
func (r *EmptyReturnRepository) ListOpenByRoute(ctx context.Context, fromCity, toCity string) ([]models.EmptyReturn, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, transporter_id, from_city, to_city, return_date, consumed_by, created_at, updated_at
                FROM empty_returns
                WHERE consumed_by IS NULL AND LOWER(from_city) = LOWER($1) AND LOWER(to_city) = LOWER($2)
                ORDER BY return_date`,
		fromCity, toCity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmptyReturn
	for rows.Next() {
		var er models.EmptyReturn
		if err := rows.Scan(&er.ID, &er.TransporterID, &er.FromCity, &er.ToCity, &er.ReturnDate, &er.ConsumedBy, &er.CreatedAt, &er.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, er)
	}
	return out, rows.Err()
}

func (r *EmptyReturnRepository) ListByTransporter(ctx context.Context, transporterID int) ([]models.EmptyReturn, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, transporter_id, from_city, to_city, return_date, consumed_by, created_at, updated_at
                FROM empty_returns WHERE transporter_id = $1 ORDER BY return_date`,
		transporterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmptyReturn
	for rows.Next() {
		var er models.EmptyReturn
		if err := rows.Scan(&er.ID, &er.TransporterID, &er.FromCity, &er.ToCity, &er.ReturnDate, &er.ConsumedBy, &er.CreatedAt, &er.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, er)
	}
	return out, rows.Err()
}

// Consume binds the empty return to a request. The IS NULL guard makes the
// at-most-once consumption atomic.
func (r *EmptyReturnRepository) Consume(ctx context.Context, id, requestID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE empty_returns SET consumed_by = $1, updated_at = NOW() WHERE id = $2 AND consumed_by IS NULL`,
		requestID, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *EmptyReturnRepository) DeleteEmptyReturn(ctx context.Context, id, transporterID int) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM empty_returns WHERE id = $1 AND transporter_id = $2 AND consumed_by IS NULL`,
		id, transporterID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNoRecord
	}
	return nil
}
