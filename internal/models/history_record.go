package models

// HistoryRecord 历史记录：键（时间戳）以 id 形式与 Snapshot 字段平铺输出
type HistoryRecord struct {
	ID string `json:"id"`
	Snapshot
}
