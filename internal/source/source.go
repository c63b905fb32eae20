package source

import (
	"context"
	"errors"
	"sort"

	"elderguard/internal/models"
)

// ErrNoData 实时记录不存在（设备尚未写入）
var ErrNoData = errors.New("no data found")

// LiveSource 实时记录读取
type LiveSource interface {
	// FetchLive 读取当前实时快照；记录不存在时返回 ErrNoData
	FetchLive(ctx context.Context) (*models.Snapshot, error)
}

// HistorySource 历史集合读取
type HistorySource interface {
	// FetchRange 返回键位于 [from, to] 闭区间内的历史记录（调用方已校验边界）
	FetchRange(ctx context.Context, from, to string) ([]models.HistoryRecord, error)
}

// sortRecordsByID 按键升序排列（键的字典序即时间序）
func sortRecordsByID(records []models.HistoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}
