package cache

import (
	"context"
	"log/slog"
	"time"
)

// SafeSetMultiple stores items and logs instead of failing the caller
func SafeSetMultiple(ctx context.Context, helper *CacheHelper, items map[string]interface{}, ttl time.Duration) {
	if err := helper.SetMultiple(ctx, items, ttl); err != nil {
		slog.ErrorContext(ctx, "Failed to populate cache",
			"error", err,
			"count", len(items))
	}
}
