package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"elderguard/internal/history"
	"elderguard/internal/models"
	"elderguard/internal/source"
	"elderguard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeKV struct {
	data map[string]string
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

type fakeLive struct {
	snap *models.Snapshot
	err  error
}

func (f *fakeLive) FetchLive(context.Context) (*models.Snapshot, error) {
	return f.snap, f.err
}

type fakeHistory struct {
	records []models.HistoryRecord
	err     error
}

func (f *fakeHistory) FetchRange(_ context.Context, from, to string) ([]models.HistoryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.HistoryRecord
	for _, r := range f.records {
		if r.ID >= from && r.ID <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeChannel struct {
	sent []models.Notification
	err  error
}

func (c *fakeChannel) Send(_ context.Context, n models.Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

type fakeAlerts struct {
	events    []models.WarningEvent
	lastCount int64
}

func (a *fakeAlerts) Recent(_ context.Context, count int64) ([]models.WarningEvent, error) {
	a.lastCount = count
	return a.events, nil
}

type testEnv struct {
	router  http.Handler
	live    *fakeLive
	history *fakeHistory
	channel *fakeChannel
	kv      *fakeKV
	alerts  *fakeAlerts
}

// 辅助函数
func setupTestEnv() *testEnv {
	env := &testEnv{
		live:    &fakeLive{},
		history: &fakeHistory{},
		channel: &fakeChannel{},
		kv:      &fakeKV{data: map[string]string{}},
		alerts:  &fakeAlerts{},
	}
	logger := zap.NewNop()
	h := NewHandler(
		env.live,
		history.NewService(env.history, logger),
		env.channel,
		store.NewPreferencesStore(env.kv, "prefs"),
		env.alerts,
		logger,
	)
	env.router = Wrap(NewRouter(h), logger)
	return env
}

func (e *testEnv) do(method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGetLive_Success(t *testing.T) {
	env := setupTestEnv()
	env.live.snap = &models.Snapshot{HeartRate: 80, FireStatus: 1, Timestamp: "2025-04-26_01-22-07"}

	w := env.do(http.MethodGet, "/api/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(80), data["heartRate"])
	assert.Equal(t, float64(1), data["fireStatus"])
	assert.Equal(t, float64(0), data["fallDetected"])
}

func TestGetLive_NoData(t *testing.T) {
	env := setupTestEnv()
	env.live.err = source.ErrNoData

	w := env.do(http.MethodGet, "/api/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No data found", body["message"])
	assert.NotContains(t, body, "data")
}

func TestGetLive_Error(t *testing.T) {
	env := setupTestEnv()
	env.live.err = errors.New("firebase returned 503")

	w := env.do(http.MethodGet, "/api/live", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func historyRecords() []models.HistoryRecord {
	return []models.HistoryRecord{
		{ID: "2025-01-01_00-00-00", Snapshot: models.Snapshot{Temperature: 25, Timestamp: "2025-01-01_00-00-00"}},
		{ID: "2025-01-01_00-00-05", Snapshot: models.Snapshot{Temperature: 21, Timestamp: "2025-01-01_00-00-05"}},
	}
}

func TestGetHistory_Range(t *testing.T) {
	env := setupTestEnv()
	env.history.records = historyRecords()

	w := env.do(http.MethodGet, "/api/history?from=2025-01-01_00-00-00&to=2025-01-01_00-00-00", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 1)
	rec := data[0].(map[string]any)
	assert.Equal(t, "2025-01-01_00-00-00", rec["id"])
	assert.Equal(t, float64(25), rec["temperature"])
}

func TestGetHistory_Sorted(t *testing.T) {
	env := setupTestEnv()
	env.history.records = historyRecords()

	w := env.do(http.MethodGet, "/api/history?from=2025-01-01_00-00-00&to=2025-01-01_23-59-59&sort=temperature&direction=ascending", "")
	assert.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, "2025-01-01_00-00-05", data[0].(map[string]any)["id"])
}

func TestGetHistory_SortedDescending(t *testing.T) {
	env := setupTestEnv()
	env.history.records = []models.HistoryRecord{
		{ID: "2025-01-01_00-00-00", Snapshot: models.Snapshot{Temperature: 10}},
		{ID: "2025-01-01_00-00-05", Snapshot: models.Snapshot{Temperature: 30}},
		{ID: "2025-01-01_00-00-10", Snapshot: models.Snapshot{Temperature: 20}},
	}

	w := env.do(http.MethodGet, "/api/history?from=2025-01-01_00-00-00&to=2025-01-01_23-59-59&sort=temperature&direction=descending", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 3)
	var temps []float64
	for _, d := range data {
		temps = append(temps, d.(map[string]any)["temperature"].(float64))
	}
	assert.Equal(t, []float64{30, 20, 10}, temps)
}

func TestGetHistory_UnknownSortField(t *testing.T) {
	env := setupTestEnv()
	env.history.records = historyRecords()

	w := env.do(http.MethodGet, "/api/history?from=2025-01-01_00-00-00&to=2025-01-01_23-59-59&sort=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory_NoBoundsIsNotFound(t *testing.T) {
	env := setupTestEnv()
	env.history.records = historyRecords()

	w := env.do(http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No data found", decode(t, w)["message"])
}

func TestGetHistory_ServerError(t *testing.T) {
	env := setupTestEnv()
	env.history.err = errors.New("permission denied")

	w := env.do(http.MethodGet, "/api/history?from=2025-01-01_00-00-00&to=2025-01-01_23-59-59", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Server error")
}

func TestExportHistory(t *testing.T) {
	env := setupTestEnv()
	env.history.records = historyRecords()

	w := env.do(http.MethodGet, "/api/history/export?from=2025-01-01_00-00-00&to=2025-01-01_23-59-59", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "elderguard_history_2025-01-01_00-00-00_2025-01-01_23-59-59.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("History")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

const validEmail = `{"to":"carer@example.com","subject":"ElderGuard Alert","userName":"Anna","message":"A fall has been detected.","warningType":"fall"}`

func TestSendEmail_Success(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPost, "/api/send-email", validEmail)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Email sent successfully", decode(t, w)["message"])
	require.Len(t, env.channel.sent, 1)
	assert.Equal(t, "carer@example.com", env.channel.sent[0].Recipient)
	assert.Equal(t, models.KindFall, env.channel.sent[0].Kind)
}

func TestSendEmail_MissingFields(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPost, "/api/send-email", `{"to":"carer@example.com","warningType":"fall"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decode(t, w)["message"])
	assert.Empty(t, env.channel.sent)
}

func TestSendEmail_EmptyBody(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPost, "/api/send-email", "  ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", decode(t, w)["message"])

	w = env.do(http.MethodPost, "/api/send-email", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["message"])
	assert.Empty(t, env.channel.sent)
}

func TestSendEmail_InvalidWarningType(t *testing.T) {
	env := setupTestEnv()

	body := strings.Replace(validEmail, `"fall"`, `"flood"`, 1)
	w := env.do(http.MethodPost, "/api/send-email", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid warning type", decode(t, w)["message"])
}

func TestSendEmail_ChannelFailure(t *testing.T) {
	env := setupTestEnv()
	env.channel.err = errors.New("smtp unreachable")

	w := env.do(http.MethodPost, "/api/send-email", validEmail)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to send email", decode(t, w)["message"])
}

func TestSendEmail_MethodNotAllowed(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodGet, "/api/send-email", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEmailSettings_RoundTrip(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodGet, "/api/settings/email", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "", data["email"])

	w = env.do(http.MethodPut, "/api/settings/email", `{"email":" carer@example.com ","name":"Anna"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/settings/email", "")
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "carer@example.com", data["email"])
	assert.Equal(t, "Anna", data["name"])
}

func TestEmailSettings_Validation(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodPut, "/api/settings/email", `{"email":"carer@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/settings/email", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAlerts(t *testing.T) {
	env := setupTestEnv()
	env.alerts.events = []models.WarningEvent{
		models.NewWarningEvent("e1", models.KindSOS, "2025-01-01_00-00-00"),
	}

	w := env.do(http.MethodGet, "/api/alerts?count=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), env.alerts.lastCount)

	data := decode(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "sos", data[0].(map[string]any)["kind"])

	env.do(http.MethodGet, "/api/alerts?count=abc", "")
	assert.Equal(t, int64(20), env.alerts.lastCount)

	env.do(http.MethodGet, "/api/alerts?count=1000", "")
	assert.Equal(t, int64(20), env.alerts.lastCount)
}

func TestHealth(t *testing.T) {
	env := setupTestEnv()

	w := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
