package counter

import (
	"context"
	"strconv"

	"github.com/pkarbowski/streambill/internal/pkg/cache"
)

const (
	settledCyclesKey = "billing:counters:settled"
	expirationsKey   = "billing:counters:cancellations_expired"
	planChangesKey   = "billing:counters:plan_changes"
)

// AddSettledCycle increments the settled-cycle counter for a period in Redis.
// Best effort: settlement is already committed when this runs, a Redis
// hiccup only costs a data point.
func AddSettledCycle(period string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, settledCyclesKey, period, 1).Err()
}

// AddExpiredCancellations adds to the running count of subscriptions the
// sweep flipped to cancelled.
func AddExpiredCancellations(n int64) error {
	if n == 0 {
		return nil
	}
	ctx := context.Background()
	return cache.GetClient().IncrBy(ctx, expirationsKey, n).Err()
}

// AddPlanChanges adds to the running count of plan changes applied at
// renewal.
func AddPlanChanges(n int) error {
	if n == 0 {
		return nil
	}
	ctx := context.Background()
	return cache.GetClient().IncrBy(ctx, planChangesKey, int64(n)).Err()
}

// Stats returns the settlement counts per period plus the lifecycle totals.
type Stats struct {
	SettledByPeriod       map[string]int64 `json:"settled_by_period"`
	ExpiredCancellations  int64            `json:"expired_cancellations"`
	PlanChangesApplied    int64            `json:"plan_changes_applied"`
}

// Read collects the current counter values. Missing keys read as zero.
func Read() (*Stats, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	raw, err := rdb.HGetAll(ctx, settledCyclesKey).Result()
	if err != nil {
		return nil, err
	}

	stats := &Stats{SettledByPeriod: make(map[string]int64, len(raw))}
	for period, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		stats.SettledByPeriod[period] = n
	}

	for _, pair := range []struct {
		key string
		dst *int64
	}{
		{expirationsKey, &stats.ExpiredCancellations},
		{planChangesKey, &stats.PlanChangesApplied},
	} {
		v, err := rdb.Get(ctx, pair.key).Result()
		if cache.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*pair.dst = n
		}
	}

	return stats, nil
}
