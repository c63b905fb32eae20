package history

import (
	"fmt"
	"sort"

	"elderguard/internal/models"
)

// SortRecords 按任意标量字段原地排序：数值字段按数值比较，其余按字典序
// 相等时保持原顺序
func SortRecords(records []models.HistoryRecord, field string, descending bool) error {
	col, ok := lookupColumn(field)
	if !ok {
		return fmt.Errorf("unknown sort field: %q", field)
	}

	less := func(a, b *models.HistoryRecord) bool {
		if col.numeric {
			return toFloat(col.value(a)) < toFloat(col.value(b))
		}
		return fmt.Sprint(col.value(a)) < fmt.Sprint(col.value(b))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if descending {
			return less(&records[j], &records[i])
		}
		return less(&records[i], &records[j])
	})
	return nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
