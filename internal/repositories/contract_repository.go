package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"camioBack/internal/models"
)

type ContractRepository struct {
	DB *sql.DB
}

func (r *ContractRepository) CreateContract(ctx context.Context, c models.Contract) (models.Contract, error) {
	query := `
               INSERT INTO contracts (request_id, offer_id, client_id, transporter_id, amount, status, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id
       `
	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		c.RequestID, c.OfferID, c.ClientID, c.TransporterID, c.Amount, models.ContractInProgress, now,
	).Scan(&c.ID)
	if err != nil {
		return models.Contract{}, err
	}
	c.Status = models.ContractInProgress
	c.CreatedAt = now
	return c, nil
}

func (r *ContractRepository) GetContractByRequest(ctx context.Context, requestID int) (models.Contract, error) {
	var c models.Contract
	query := `
               SELECT id, request_id, offer_id, client_id, transporter_id, amount, status, created_at, updated_at
               FROM contracts WHERE request_id = $1 ORDER BY created_at DESC LIMIT 1
       `
	err := r.DB.QueryRowContext(ctx, query, requestID).Scan(
		&c.ID, &c.RequestID, &c.OfferID, &c.ClientID, &c.TransporterID, &c.Amount, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contract{}, models.ErrNoRecord
		}
		return models.Contract{}, err
	}
	return c, nil
}

func (r *ContractRepository) UpdateContractStatus(ctx context.Context, id int, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
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
