package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"camioBack/internal/models"
)

type OfferRepository struct {
	DB *sql.DB
}

func (r *OfferRepository) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	query := `
               INSERT INTO offers (request_id, transporter_id, amount, pickup_date, load_type, status, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id
       `
	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		offer.RequestID, offer.TransporterID, offer.Amount, offer.PickupDate, offer.LoadType, models.OfferPending, now,
	).Scan(&offer.ID)
	if err != nil {
		return models.Offer{}, err
	}
	offer.Status = models.OfferPending
	offer.CreatedAt = now
	return offer, nil
}

func (r *OfferRepository) GetOfferByID(ctx context.Context, id int) (models.Offer, error) {
	var offer models.Offer
	query := `
               SELECT id, request_id, transporter_id, amount, pickup_date, load_type, status, created_at, updated_at
               FROM offers WHERE id = $1
       `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&offer.ID, &offer.RequestID, &offer.TransporterID, &offer.Amount,
		&offer.PickupDate, &offer.LoadType, &offer.Status, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Offer{}, models.ErrNoRecord
		}
		return models.Offer{}, err
	}
	return offer, nil
}

func (r *OfferRepository) GetOffersByRequest(ctx context.Context, requestID int) ([]models.Offer, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, request_id, transporter_id, amount, pickup_date, load_type, status, created_at, updated_at
                FROM offers WHERE request_id = $1 ORDER BY created_at`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var offer models.Offer
		if err := rows.Scan(
			&offer.ID, &offer.RequestID, &offer.TransporterID, &offer.Amount,
			&offer.PickupDate, &offer.LoadType, &offer.Status, &offer.CreatedAt, &offer.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, offer)
	}
	return out, rows.Err()
}

func (r *OfferRepository) UpdateOfferStatus(ctx context.Context, id int, from, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
