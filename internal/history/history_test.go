package history

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"elderguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// fakeHistory 内存历史集合
type fakeHistory struct {
	records []models.HistoryRecord
	err     error
	calls   int
}

func (h *fakeHistory) FetchRange(_ context.Context, from, to string) ([]models.HistoryRecord, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	var out []models.HistoryRecord
	for _, r := range h.records {
		if r.ID >= from && r.ID <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func record(id string, temp float64, fall int) models.HistoryRecord {
	return models.HistoryRecord{
		ID: id,
		Snapshot: models.Snapshot{
			Temperature:  temp,
			FallDetected: models.Flag(fall),
			Timestamp:    id,
		},
	}
}

func setupService() (*Service, *fakeHistory) {
	h := &fakeHistory{records: []models.HistoryRecord{
		record("2025-01-01_00-00-10", 22.0, 0),
		record("2025-01-01_00-00-00", 21.0, 0),
		record("2025-01-01_00-00-05", 25.5, 1),
		record("2025-01-02_00-00-00", 19.0, 0),
	}}
	return NewService(h, zap.NewNop()), h
}

func TestQuery_ExactKey(t *testing.T) {
	svc, _ := setupService()

	records, err := svc.Query(context.Background(), "2025-01-01_00-00-00", "2025-01-01_00-00-00")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-01-01_00-00-00", records[0].ID)
}

func TestQuery_OrderedByKey(t *testing.T) {
	svc, _ := setupService()

	records, err := svc.Query(context.Background(), "2025-01-01_00-00-00", "2025-01-01_23-59-59")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2025-01-01_00-00-00", records[0].ID)
	assert.Equal(t, "2025-01-01_00-00-05", records[1].ID)
	assert.Equal(t, "2025-01-01_00-00-10", records[2].ID)
}

func TestQuery_InvalidBoundsReturnEmpty(t *testing.T) {
	svc, h := setupService()

	cases := []struct{ from, to string }{
		{"", ""},
		{"2025-01-01_00-00-00", ""},
		{"", "2025-01-01_00-00-00"},
		{"yesterday", "today"},
		{"2025-13-01_00-00-00", "2025-12-01_00-00-00"},
		{"2025-01-02_00-00-00", "2025-01-01_00-00-00"},
	}
	for _, tc := range cases {
		records, err := svc.Query(context.Background(), tc.from, tc.to)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records, "from=%q to=%q", tc.from, tc.to)
	}
	// 不触达数据源
	assert.Equal(t, 0, h.calls)
}

func TestQuery_NoMatchesIsEmptyNotError(t *testing.T) {
	svc, _ := setupService()

	records, err := svc.Query(context.Background(), "2030-01-01_00-00-00", "2030-01-02_00-00-00")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestQuery_SourceError(t *testing.T) {
	svc, h := setupService()
	h.err = errors.New("permission denied")

	_, err := svc.Query(context.Background(), "2025-01-01_00-00-00", "2025-01-02_00-00-00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSortRecords_Numeric(t *testing.T) {
	records := []models.HistoryRecord{
		record("a", 9, 0),
		record("b", 100, 0),
		record("c", 21.5, 0),
	}

	require.NoError(t, SortRecords(records, "temperature", false))
	assert.Equal(t, []string{"a", "c", "b"}, ids(records))

	require.NoError(t, SortRecords(records, "temperature", true))
	assert.Equal(t, []string{"b", "c", "a"}, ids(records))
}

func TestSortRecords_Lexicographic(t *testing.T) {
	records := []models.HistoryRecord{
		record("2025-01-01_00-00-10", 0, 0),
		record("2025-01-01_00-00-02", 0, 0),
	}

	require.NoError(t, SortRecords(records, "timestamp", false))
	assert.Equal(t, []string{"2025-01-01_00-00-02", "2025-01-01_00-00-10"}, ids(records))
}

func TestSortRecords_FlagAndStable(t *testing.T) {
	records := []models.HistoryRecord{
		record("a", 0, 1),
		record("b", 0, 0),
		record("c", 0, 1),
	}

	require.NoError(t, SortRecords(records, "fallDetected", true))
	assert.Equal(t, []string{"a", "c", "b"}, ids(records))
}

func TestSortRecords_UnknownField(t *testing.T) {
	records := []models.HistoryRecord{record("a", 0, 0)}
	assert.Error(t, SortRecords(records, "password", false))
}

func TestExportXLSX(t *testing.T) {
	records := []models.HistoryRecord{
		record("2025-01-01_00-00-00", 21.0, 0),
		record("2025-01-01_00-00-05", 25.5, 1),
	}

	data, err := ExportXLSX(records)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Timestamp", rows[0][0])
	assert.Equal(t, "Temperature (°C)", rows[0][1])
	assert.Equal(t, "2025-01-01_00-00-05", rows[2][0])
	assert.Equal(t, "25.5", rows[2][1])
	assert.Equal(t, "1", rows[2][9])
}

func TestExportXLSX_Empty(t *testing.T) {
	data, err := ExportXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func ids(records []models.HistoryRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
