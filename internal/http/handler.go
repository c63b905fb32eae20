package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"elderguard/internal/history"
	"elderguard/internal/models"
	"elderguard/internal/notify"
	"elderguard/internal/source"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// HistoryQuerier 历史区间查询
type HistoryQuerier interface {
	Query(ctx context.Context, from, to string) ([]models.HistoryRecord, error)
}

// PreferencesStore 通知偏好读写
type PreferencesStore interface {
	Get(ctx context.Context) (models.Preferences, error)
	Save(ctx context.Context, prefs models.Preferences) error
}

// AlertReader 最近的报警卡片
type AlertReader interface {
	Recent(ctx context.Context, count int64) ([]models.WarningEvent, error)
}

// Handler dashboard API
type Handler struct {
	live    source.LiveSource
	history HistoryQuerier
	channel notify.Channel
	prefs   PreferencesStore
	alerts  AlertReader // 可为 nil
	logger  *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(
	live source.LiveSource,
	historyQuerier HistoryQuerier,
	channel notify.Channel,
	prefs PreferencesStore,
	alerts AlertReader,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		live:    live,
		history: historyQuerier,
		channel: channel,
		prefs:   prefs,
		alerts:  alerts,
		logger:  logger,
	}
}

// GetLive GET /api/live
// 记录不存在时返回 200 + success=false
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	snap, err := h.live.FetchLive(r.Context())
	if err != nil {
		if errors.Is(err, source.ErrNoData) {
			writeJSON(w, http.StatusOK, Fail("No data found"))
			return
		}
		h.logger.Error("Failed to fetch live snapshot", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(snap))
}

// GetHistory GET /api/history?from=&to=&sort=&direction=ascending|descending
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, ok := h.queryHistory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(records))
}

// ExportHistory GET /api/history/export?from=&to=
func (h *Handler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	records, ok := h.queryHistory(w, r)
	if !ok {
		return
	}

	data, err := history.ExportXLSX(records)
	if err != nil {
		h.logger.Error("Failed to export history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return
	}

	q := r.URL.Query()
	filename := fmt.Sprintf("elderguard_history_%s_%s.xlsx", q.Get("from"), q.Get("to"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// queryHistory 查询并按请求排序；失败时已写响应
func (h *Handler) queryHistory(w http.ResponseWriter, r *http.Request) ([]models.HistoryRecord, bool) {
	q := r.URL.Query()
	records, err := h.history.Query(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.logger.Error("History query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return nil, false
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusNotFound, Fail("No data found"))
		return nil, false
	}

	if field := q.Get("sort"); field != "" {
		descending := strings.EqualFold(q.Get("direction"), "descending")
		if err := history.SortRecords(records, field, descending); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return nil, false
		}
	}
	return records, true
}

// SendEmail POST /api/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var n models.Notification
	if err := readBodyJSON(r, maxBodyBytes, &n); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(bodyError(err)))
		return
	}

	if missingFields(n) {
		writeJSON(w, http.StatusBadRequest, Fail("Missing required fields"))
		return
	}
	if !n.Kind.Valid() {
		writeJSON(w, http.StatusBadRequest, Fail("Invalid warning type"))
		return
	}

	if err := h.channel.Send(r.Context(), n); err != nil {
		h.logger.Error("Failed to send email",
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("Failed to send email"))
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Email sent successfully"))
}

func missingFields(n models.Notification) bool {
	return strings.TrimSpace(n.Recipient) == "" ||
		strings.TrimSpace(n.Subject) == "" ||
		strings.TrimSpace(n.DisplayName) == "" ||
		strings.TrimSpace(n.Message) == "" ||
		n.Kind == ""
}

// GetEmailSettings GET /api/settings/email
func (h *Handler) GetEmailSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefs.Get(r.Context())
	if err != nil {
		h.logger.Error("Failed to read email settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(prefs))
}

// SaveEmailSettings PUT /api/settings/email
func (h *Handler) SaveEmailSettings(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := readBodyJSON(r, maxBodyBytes, &prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(bodyError(err)))
		return
	}
	if strings.TrimSpace(prefs.Email) == "" || strings.TrimSpace(prefs.Name) == "" {
		writeJSON(w, http.StatusBadRequest, Fail("Missing required fields"))
		return
	}

	if err := h.prefs.Save(r.Context(), prefs); err != nil {
		h.logger.Error("Failed to save email settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Settings saved"))
}

// GetAlerts GET /api/alerts?count=N
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		writeJSON(w, http.StatusOK, Ok([]models.WarningEvent{}))
		return
	}

	count := queryCount(r, "count", 20, 500)

	events, err := h.alerts.Recent(r.Context(), int64(count))
	if err != nil {
		h.logger.Error("Failed to read alert feed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("Server error: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(events))
}

// Health GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
