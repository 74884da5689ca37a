package main

import (
	"context"
	"log"
	"time"

	"camioBack/internal/services"
)

const expirySweepTimeout = 1 * time.Minute

// startExpirySweeper periodically expires published requests that sat in
// matching past the cutoff. Runs once at startup, then hourly.
func startExpirySweeper(ctx context.Context, svc *services.RequestService, maxAge time.Duration, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, expirySweepTimeout)
			expired, err := svc.ExpireStale(runCtx, time.Now().Add(-maxAge))
			cancel()
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("expiry sweeper: %v", err)
				}
			} else if expired > 0 && infoLog != nil {
				infoLog.Printf("expiry sweeper: expired %d stale requests", expired)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
