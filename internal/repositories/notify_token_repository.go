package repositories

import (
	"context"
	"database/sql"
)

type NotifyTokenRepository struct {
	DB *sql.DB
}

func (r *NotifyTokenRepository) InsertToken(ctx context.Context, userID int, token string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO notify_tokens (user_id, token) VALUES ($1, $2)
                ON CONFLICT (token) DO UPDATE SET user_id = $1`,
		userID, token)
	return err
}

func (r *NotifyTokenRepository) DeleteToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM notify_tokens WHERE token = $1`, token)
	return err
}

func (r *NotifyTokenRepository) GetTokensByUserID(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT token FROM notify_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
