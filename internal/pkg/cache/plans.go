package cache

import (
	"encoding/json"
	"time"

	"github.com/pkarbowski/streambill/app/models"
)

const (
	plansCacheKey = "plans:active"
	plansCacheTTL = 15 * time.Minute
)

// GetActivePlans returns the cached plan catalog, or false when the cache
// is cold or unreachable.
func GetActivePlans() ([]models.Plan, bool) {
	raw, err := Get(plansCacheKey)
	if err != nil {
		return nil, false
	}
	var plans []models.Plan
	if err := json.Unmarshal([]byte(raw), &plans); err != nil {
		return nil, false
	}
	return plans, true
}

// SetActivePlans stores the plan catalog. Failures are ignored, the cache
// is an optimization over the plans table, never the source of truth.
func SetActivePlans(plans []models.Plan) {
	raw, err := json.Marshal(plans)
	if err != nil {
		return
	}
	_ = Set(plansCacheKey, raw, plansCacheTTL)
}

// InvalidateActivePlans drops the cached catalog after an admin plan write.
func InvalidateActivePlans() {
	_ = Delete(plansCacheKey)
}
