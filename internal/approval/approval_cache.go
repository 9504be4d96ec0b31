package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ReportCacheKeyPrefix  = "approval:report:"
	defaultReportCacheTTL = 10 * time.Minute
)

func GetReportCacheKey(kind Kind, month string) string {
	return fmt.Sprintf("%s%s:%s", ReportCacheKeyPrefix, strings.ToLower(string(kind)), month)
}

func (s *service) cachedReport(ctx context.Context, key string) (Report, bool) {
	if s.rdb == nil {
		return Report{}, false
	}
	cached, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return Report{}, false
	}
	var rep Report
	if err := json.Unmarshal([]byte(cached), &rep); err != nil {
		s.logger.Warn("discard unreadable report cache entry", zap.String("key", key), zap.Error(err))
		return Report{}, false
	}
	return rep, true
}

func (s *service) storeReport(ctx context.Context, key string, rep Report) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.reportTTL).Err(); err != nil {
		s.logger.Warn("store report cache failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidateReport drops the cached report of the month the request was created in.
func (s *service) invalidateReport(ctx context.Context, kind Kind, createdAt time.Time) {
	if s.rdb == nil {
		return
	}
	key := GetReportCacheKey(kind, createdAt.In(s.loc).Format("2006-01"))
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Error("failed to invalidate report cache",
			zap.Error(err),
			zap.String("key", key),
		)
	}
}
