package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tracker records transporter activity in Redis. A transporter counts as
// active while its last-seen key has not expired; the recommendation ranker
// reads this for the "active" tier.
type Tracker struct {
	rdb    *redis.Client
	window time.Duration
}

func NewTracker(rdb *redis.Client, window time.Duration) *Tracker {
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &Tracker{rdb: rdb, window: window}
}

func presenceKey(transporterID int) string {
	return fmt.Sprintf("transporters:active:%d", transporterID)
}

// Touch refreshes the transporter's activity window. Called on any
// authenticated transporter action.
func (t *Tracker) Touch(ctx context.Context, transporterID int) error {
	return t.rdb.Set(ctx, presenceKey(transporterID), time.Now().Unix(), t.window).Err()
}

// IsActive reports whether the transporter acted within the activity window.
func (t *Tracker) IsActive(ctx context.Context, transporterID int) (bool, error) {
	_, err := t.rdb.Get(ctx, presenceKey(transporterID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GoOffline drops the transporter's presence key immediately.
func (t *Tracker) GoOffline(ctx context.Context, transporterID int) error {
	return t.rdb.Del(ctx, presenceKey(transporterID)).Err()
}
