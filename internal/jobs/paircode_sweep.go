package jobs

import (
	"context"
	"log"
	"time"

	"rollcall/internal/config"
	"rollcall/internal/db"
	"rollcall/internal/paircode"
)

// StartPairCodeSweep clears pair codes off paras once their Redis TTL
// has lapsed, so an expired code stops resolving in the check-in path.
func StartPairCodeSweep(ctx context.Context, cfg config.Config, store *db.Store, codes *paircode.Store) {
	if !cfg.PairCodeSweepEnabled {
		return
	}
	if !codes.Enabled() {
		log.Printf("pair code sweep disabled: redis not configured")
		return
	}
	interval := cfg.PairCodeSweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleared := sweepOnce(ctx, store, codes)
				if cleared > 0 {
					log.Printf("pair code sweep cleared %d expired codes", cleared)
				}
			}
		}
	}()
}

func sweepOnce(ctx context.Context, store *db.Store, codes *paircode.Store) int {
	active, err := store.Queries.ListActivePairCodes(ctx)
	if err != nil {
		log.Printf("pair code sweep error: %v", err)
		return 0
	}
	cleared := 0
	for _, entry := range active {
		alive, err := codes.Alive(ctx, entry.PairCode)
		if err != nil {
			log.Printf("pair code sweep error: %v", err)
			continue
		}
		if alive {
			continue
		}
		if err := store.Queries.ClearPairCode(ctx, db.ClearPairCodeParams{
			ParaID:   entry.ParaID,
			PairCode: entry.PairCode,
		}); err != nil {
			log.Printf("pair code sweep error: %v", err)
			continue
		}
		cleared++
	}
	return cleared
}
