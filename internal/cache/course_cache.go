package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

// CourseFetcher loads courses missing from the cache
type CourseFetcher func(ctx context.Context, ids []string) (map[string]*models.Course, error)

// ResolveCourses implements cache-aside for a batch of course ids.
// Cache failures degrade to fetching everything; unknown ids are never cached.
func (cm *CacheManager) ResolveCourses(ctx context.Context, ids []string, fetch CourseFetcher) (map[string]*models.Course, error) {
	result := make(map[string]*models.Course, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cached, err := cm.Course.GetMultiple(ctx, ids)
	if err != nil && !errors.Is(err, ErrCacheNotAvailable) {
		slog.InfoContext(ctx, "Cache get error, proceeding to fetch", "error", err)
	}

	var missing []string
	for _, id := range ids {
		raw, ok := cached[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		var course models.Course
		if err := json.Unmarshal([]byte(raw), &course); err != nil {
			slog.WarnContext(ctx, "Discarding unreadable cached course", "course_id", id, "error", err)
			missing = append(missing, id)
			continue
		}
		result[id] = &course
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := fetch(ctx, missing)
	if err != nil {
		return nil, err
	}

	toCache := make(map[string]interface{}, len(fetched))
	for id, course := range fetched {
		result[id] = course
		toCache[id] = course
	}
	if cm.Course.Available() {
		SafeSetMultiple(ctx, cm.Course, toCache, cm.courseTTL)
	}

	return result, nil
}
