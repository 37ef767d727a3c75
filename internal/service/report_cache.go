package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/pagination"
)

// ReportCache stores rendered report pages. A nil cache disables caching.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

func reportCacheKey(page pagination.PageRequest) string {
	return fmt.Sprintf("report:resolved:%d:%d:%s:%s", page.Page, page.Limit, page.Sort, page.Direction)
}

func (s *TicketService) cacheGet(ctx context.Context, key string) ([]ReportRow, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var rows []ReportRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.logger.Warn("report cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return rows, true
}

func (s *TicketService) cacheSet(ctx context.Context, key string, rows []ReportRow) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw, s.cacheTTL)
}
