package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"camioBack/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
               INSERT INTO users (name, phone, email, password, city, role, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id
       `
	now := time.Now()
	err := r.DB.QueryRowContext(ctx, query,
		user.Name, user.Phone, user.Email, user.Password, user.City, user.Role, now,
	).Scan(&user.ID)
	if err != nil {
		return models.User{}, err
	}
	user.CreatedAt = now
	user.Password = ""
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	var user models.User
	query := `
               SELECT id, name, phone, email, city, role, doc_of_proof, validated, blocked,
                      review_rating, reviews_count, trips_count, created_at, updated_at
               FROM users WHERE id = $1
       `
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.City, &user.Role, &user.DocOfProof,
		&user.Validated, &user.Blocked, &user.ReviewRating, &user.ReviewsCount, &user.TripsCount,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (models.User, error) {
	var user models.User
	query := `
               SELECT id, name, phone, email, password, city, role, validated, blocked,
                      review_rating, reviews_count, trips_count, created_at
               FROM users WHERE phone = $1
       `
	err := r.DB.QueryRowContext(ctx, query, phone).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.City, &user.Role,
		&user.Validated, &user.Blocked, &user.ReviewRating, &user.ReviewsCount, &user.TripsCount,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	query := `
               SELECT id, name, phone, email, password, city, role, validated, blocked,
                      review_rating, reviews_count, trips_count, created_at
               FROM users WHERE email = $1
       `
	err := r.DB.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.Password, &user.City, &user.Role,
		&user.Validated, &user.Blocked, &user.ReviewRating, &user.ReviewsCount, &user.TripsCount,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// ListEligibleTransporters returns validated, unblocked transporters who have
// not declined the given request.
func (r *UserRepository) ListEligibleTransporters(ctx context.Context, requestID int) ([]models.TransporterSummary, error) {
	query := `
               SELECT u.id, u.name, u.city, u.review_rating, u.reviews_count, u.trips_count
               FROM users u
               WHERE u.role = $1 AND u.validated = TRUE AND u.blocked = FALSE
                 AND NOT EXISTS (
                       SELECT 1 FROM request_declines d
                       WHERE d.request_id = $2 AND d.transporter_id = u.id
                 )
               ORDER BY u.id
       `
	rows, err := r.DB.QueryContext(ctx, query, models.RoleTransporter, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TransporterSummary
	for rows.Next() {
		var t models.TransporterSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.ReviewRating, &t.ReviewsCount, &t.TripsCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ApplyRating folds a new rating into the transporter's running aggregate and
// counts the finished trip.
func (r *UserRepository) ApplyRating(ctx context.Context, transporterID int, rating float64) error {
	query := `
               UPDATE users
               SET review_rating = (review_rating * reviews_count + $1) / (reviews_count + 1),
                   reviews_count = reviews_count + 1,
                   trips_count = trips_count + 1,
                   updated_at = NOW()
               WHERE id = $2
       `
	res, err := r.DB.ExecContext(ctx, query, rating, transporterID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// IncrementTrips counts a completed trip when no rating was submitted.
func (r *UserRepository) IncrementTrips(ctx context.Context, transporterID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET trips_count = trips_count + 1, updated_at = NOW() WHERE id = $1`,
		transporterID)
	return err
}

func (r *UserRepository) SetSession(ctx context.Context, userID int, session models.Session) error {
	query := `
               INSERT INTO sessions (user_id, role, refresh_token, expires_at)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (user_id) DO UPDATE SET refresh_token = $3, expires_at = $4
       `
	_, err := r.DB.ExecContext(ctx, query, userID, session.Role, session.RefreshToken, session.ExpiresAt)
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	query := `SELECT user_id, role, refresh_token, expires_at FROM sessions WHERE refresh_token = $1`
	err := r.DB.QueryRowContext(ctx, query, refreshToken).Scan(
		&session.UserID, &session.Role, &session.RefreshToken, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, nil
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *UserRepository) DeleteSession(ctx context.Context, userID int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (r *UserRepository) SetDocOfProof(ctx context.Context, userID int, url string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET doc_of_proof = $1, updated_at = NOW() WHERE id = $2`, url, userID)
	return err
}
