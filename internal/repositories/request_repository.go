package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"camioBack/internal/fsm"
	"camioBack/internal/models"
)

type RequestRepository struct {
	DB *sql.DB
}

func (r *RequestRepository) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	query := `
               INSERT INTO requests (reference_id, client_id, from_city, to_city, from_address, to_address,
                                     goods_type, description, budget, pickup_date, handling_required,
                                     from_floor, to_floor, from_elevator, to_elevator, status, payment_status, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
               RETURNING id
       `
	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		req.ReferenceID, req.ClientID, req.FromCity, req.ToCity, req.FromAddress, req.ToAddress,
		req.GoodsType, req.Description, req.Budget, req.PickupDate, req.HandlingRequired,
		req.FromFloor, req.ToFloor, req.FromElevator, req.ToElevator, fsm.StatusOpen, fsm.PaymentNotRequired, now,
	).Scan(&req.ID)
	if err != nil {
		return models.Request{}, err
	}
	req.Status = fsm.StatusOpen
	req.PaymentStatus = fsm.PaymentNotRequired
	req.CreatedAt = now
	return req, nil
}

func (r *RequestRepository) GetRequestByID(ctx context.Context, id int) (models.Request, error) {
	var req models.Request
	query := `
               SELECT id, reference_id, client_id, from_city, to_city, from_address, to_address,
                      goods_type, description, budget, pickup_date, handling_required,
                      from_floor, to_floor, from_elevator, to_elevator,
                      status, payment_status, qualified_at,
                      transporter_amount, platform_fee, client_total,
                      accepted_offer_id, assigned_transporter_id, payment_receipt, archive_reason, hidden,
                      created_at, updated_at
               FROM requests WHERE id = $1
       `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.ReferenceID, &req.ClientID, &req.FromCity, &req.ToCity, &req.FromAddress, &req.ToAddress,
		&req.GoodsType, &req.Description, &req.Budget, &req.PickupDate, &req.HandlingRequired,
		&req.FromFloor, &req.ToFloor, &req.FromElevator, &req.ToElevator,
		&req.Status, &req.PaymentStatus, &req.QualifiedAt,
		&req.TransporterAmount, &req.PlatformFee, &req.ClientTotal,
		&req.AcceptedOfferID, &req.AssignedTransporterID, &req.PaymentReceipt, &req.ArchiveReason, &req.Hidden,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Request{}, models.ErrNoRecord
		}
		return models.Request{}, err
	}

	interests, err := r.ListInterests(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	for _, in := range interests {
		req.TransporterInterests = append(req.TransporterInterests, in.TransporterID)
	}
	declined, err := r.listDeclines(ctx, id)
	if err != nil {
		return models.Request{}, err
	}
	req.DeclinedBy = declined
	return req, nil
}

func (r *RequestRepository) GetRequestsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Request, error) {
	query := `
               SELECT id, reference_id, client_id, from_city, to_city, goods_type, description, budget,
                      status, payment_status, qualified_at, transporter_amount, platform_fee, client_total,
                      assigned_transporter_id, hidden, created_at
               FROM requests
               WHERE status = $1
               ORDER BY created_at DESC
               LIMIT $2 OFFSET $3
       `
	rows, err := r.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID, &req.ReferenceID, &req.ClientID, &req.FromCity, &req.ToCity, &req.GoodsType, &req.Description, &req.Budget,
			&req.Status, &req.PaymentStatus, &req.QualifiedAt, &req.TransporterAmount, &req.PlatformFee, &req.ClientTotal,
			&req.AssignedTransporterID, &req.Hidden, &req.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *RequestRepository) GetRequestsByClient(ctx context.Context, clientID int) ([]models.Request, error) {
	query := `
               SELECT id, reference_id, client_id, from_city, to_city, goods_type, description, budget,
                      status, payment_status, qualified_at, transporter_amount, platform_fee, client_total,
                      assigned_transporter_id, hidden, created_at
               FROM requests
               WHERE client_id = $1
               ORDER BY created_at DESC
       `
	rows, err := r.DB.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID, &req.ReferenceID, &req.ClientID, &req.FromCity, &req.ToCity, &req.GoodsType, &req.Description, &req.Budget,
			&req.Status, &req.PaymentStatus, &req.QualifiedAt, &req.TransporterAmount, &req.PlatformFee, &req.ClientTotal,
			&req.AssignedTransporterID, &req.Hidden, &req.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// Qualify stores pricing and opens the payment loop. qualified_at is stamped
// exactly once: re-qualifying only recomputes the amounts and never resets
// interests already gathered or payment progress already made.
func (r *RequestRepository) Qualify(ctx context.Context, id int, amount, fee, total float64) error {
	query := `
               UPDATE requests
               SET transporter_amount = $1, platform_fee = $2, client_total = $3,
                   qualified_at = COALESCE(qualified_at, NOW()),
                   payment_status = CASE WHEN payment_status = $4 THEN $5 ELSE payment_status END,
                   updated_at = NOW()
               WHERE id = $6
       `
	res, err := r.DB.ExecContext(ctx, query, amount, fee, total, fsm.PaymentNotRequired, fsm.PaymentPending, id)
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

// UpdateStatus performs a compare-and-set on the status column. Returns false
// when the guard did not match, without touching the row.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int, from, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
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

// Archive is a CAS into the terminal archived state, allowed only before a
// transporter is committed.
func (r *RequestRepository) Archive(ctx context.Context, id int, reason string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests SET status = $1, archive_reason = $2, updated_at = NOW()
                WHERE id = $3 AND status IN ($4, $5)`,
		fsm.StatusArchived, reason, id, fsm.StatusOpen, fsm.StatusPublished)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CommitChosenTransporter is the single atomic selection write for the client
// choice path. The guard on status is what makes concurrent selections lose
// cleanly instead of double-assigning.
func (r *RequestRepository) CommitChosenTransporter(ctx context.Context, requestID, transporterID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
                SET status = $1, assigned_transporter_id = $2, accepted_offer_id = NULL,
                    payment_status = CASE WHEN payment_status = $3 THEN $4 ELSE payment_status END,
                    updated_at = NOW()
                WHERE id = $5 AND status = $6`,
		fsm.StatusAccepted, transporterID, fsm.PaymentNotRequired, fsm.PaymentPending, requestID, fsm.StatusPublished)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CommitManualAssignment assigns a transporter by coordinator pick, pricing the
// request in the same statement. Allowed from open or published_for_matching.
func (r *RequestRepository) CommitManualAssignment(ctx context.Context, requestID, transporterID int, amount, fee, total float64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
                SET status = $1, assigned_transporter_id = $2, accepted_offer_id = NULL,
                    transporter_amount = $3, platform_fee = $4, client_total = $5,
                    qualified_at = COALESCE(qualified_at, NOW()),
                    payment_status = CASE WHEN payment_status = $6 THEN $7 ELSE payment_status END,
                    updated_at = NOW()
                WHERE id = $8 AND status IN ($9, $10)`,
		fsm.StatusAccepted, transporterID, amount, fee, total, fsm.PaymentNotRequired, fsm.PaymentPending, requestID, fsm.StatusOpen, fsm.StatusPublished)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CommitAcceptedOffer flips the request and the winning offer in one
// transaction. Sibling pending offers are intentionally left pending.
func (r *RequestRepository) CommitAcceptedOffer(ctx context.Context, requestID, offerID int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE requests
                SET status = $1, accepted_offer_id = $2, assigned_transporter_id = NULL,
                    payment_status = CASE WHEN payment_status = $3 THEN $4 ELSE payment_status END,
                    updated_at = NOW()
                WHERE id = $5 AND status IN ($6, $7)`,
		fsm.StatusAccepted, offerID, fsm.PaymentNotRequired, fsm.PaymentPending, requestID, fsm.StatusOpen, fsm.StatusPublished)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		models.OfferAccepted, offerID, models.OfferPending)
	if err != nil {
		return false, err
	}
	rows, err = res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Republish clears the assignment fields and returns the request to matching.
func (r *RequestRepository) Republish(ctx context.Context, id int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
                SET status = $1, assigned_transporter_id = NULL, accepted_offer_id = NULL, updated_at = NOW()
                WHERE id = $2 AND status IN ($3, $4)`,
		fsm.StatusPublished, id, fsm.StatusAccepted, fsm.StatusCompleted)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdatePaymentStatus performs a compare-and-set on payment_status. A non-nil
// receipt replaces the stored receipt reference.
func (r *RequestRepository) UpdatePaymentStatus(ctx context.Context, id int, from, to string, receipt *string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
                SET payment_status = $1, payment_receipt = COALESCE($2, payment_receipt), updated_at = NOW()
                WHERE id = $3 AND payment_status = $4`,
		to, receipt, id, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *RequestRepository) SetHidden(ctx context.Context, id int, hidden bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests SET hidden = $1, updated_at = NOW() WHERE id = $2`, hidden, id)
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

// DeleteRequest hard-deletes the request together with its dependent offers,
// interests and declines. Irreversible, admin only.
func (r *RequestRepository) DeleteRequest(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM request_interests WHERE request_id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM request_declines WHERE request_id = $1`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM offers WHERE request_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
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
	return tx.Commit()
}

// AddInterest is an idempotent upsert: a second write for the same pair is a
// no-op at the database level, so concurrent writers cannot duplicate entries.
func (r *RequestRepository) AddInterest(ctx context.Context, in models.Interest) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO request_interests (request_id, transporter_id, availability_date, created_at)
                VALUES ($1, $2, $3, NOW())
                ON CONFLICT (request_id, transporter_id) DO NOTHING`,
		in.RequestID, in.TransporterID, in.AvailabilityDate)
	return err
}

// RemoveInterest is idempotent on absence.
func (r *RequestRepository) RemoveInterest(ctx context.Context, requestID, transporterID int) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM request_interests WHERE request_id = $1 AND transporter_id = $2`,
		requestID, transporterID)
	return err
}

func (r *RequestRepository) HasInterest(ctx context.Context, requestID, transporterID int) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_interests WHERE request_id = $1 AND transporter_id = $2`,
		requestID, transporterID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RequestRepository) ListInterests(ctx context.Context, requestID int) ([]models.Interest, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT request_id, transporter_id, availability_date, created_at
                FROM request_interests WHERE request_id = $1 ORDER BY created_at`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interest
	for rows.Next() {
		var in models.Interest
		if err := rows.Scan(&in.RequestID, &in.TransporterID, &in.AvailabilityDate, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// AddDecline records a permanent per-pair decline.
func (r *RequestRepository) AddDecline(ctx context.Context, requestID, transporterID int) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO request_declines (request_id, transporter_id, created_at)
                VALUES ($1, $2, NOW())
                ON CONFLICT (request_id, transporter_id) DO NOTHING`,
		requestID, transporterID)
	return err
}

func (r *RequestRepository) IsDeclined(ctx context.Context, requestID, transporterID int) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_declines WHERE request_id = $1 AND transporter_id = $2`,
		requestID, transporterID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RequestRepository) listDeclines(ctx context.Context, requestID int) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT transporter_id FROM request_declines WHERE request_id = $1 ORDER BY transporter_id`,
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MarkExpired sweeps stale published requests into the expired state. Driven
// by the background scheduler, not by any synchronous call path.
func (r *RequestRepository) MarkExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests SET status = $1, updated_at = NOW()
                WHERE status = $2 AND updated_at < $3`,
		fsm.StatusExpired, fsm.StatusPublished, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
