package history

import (
	"context"
	"fmt"
	"sort"

	"elderguard/internal/metrics"
	"elderguard/internal/models"
	"elderguard/internal/source"

	"go.uber.org/zap"
)

// Service 历史区间查询
type Service struct {
	source source.HistorySource
	logger *zap.Logger
}

// NewService 创建历史查询服务
func NewService(src source.HistorySource, logger *zap.Logger) *Service {
	return &Service{source: src, logger: logger}
}

// Query 返回键位于 [from, to] 闭区间的记录，按键升序
//
// from/to 缺失、格式错误或 from > to 时返回空结果，不做全量扫描
// 区间内没有记录时返回空切片而不是错误
func (s *Service) Query(ctx context.Context, from, to string) ([]models.HistoryRecord, error) {
	if !models.IsValidTimestamp(from) || !models.IsValidTimestamp(to) || from > to {
		metrics.HistoryQueries.WithLabelValues("invalid").Inc()
		s.logger.Debug("Ignoring history query with invalid range",
			zap.String("from", from),
			zap.String("to", to),
		)
		return []models.HistoryRecord{}, nil
	}

	records, err := s.source.FetchRange(ctx, from, to)
	if err != nil {
		metrics.HistoryQueries.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch history range: %w", err)
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	// 不依赖数据源的返回顺序
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	if len(records) == 0 {
		metrics.HistoryQueries.WithLabelValues("empty").Inc()
	} else {
		metrics.HistoryQueries.WithLabelValues("ok").Inc()
	}
	return records, nil
}
