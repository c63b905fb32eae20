package httpapi

import (
	"net/http"

	"elderguard/internal/metrics"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter 注册 dashboard API 路由
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/live", h.GetLive).Methods(http.MethodGet)
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/history/export", h.ExportHistory).Methods(http.MethodGet)
	api.HandleFunc("/send-email", h.SendEmail).Methods(http.MethodPost)
	api.HandleFunc("/settings/email", h.GetEmailSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings/email", h.SaveEmailSettings).Methods(http.MethodPut)
	api.HandleFunc("/alerts", h.GetAlerts).Methods(http.MethodGet)

	return r
}

// Wrap 访问日志 / panic 恢复 / CORS
func Wrap(router http.Handler, logger *zap.Logger) http.Handler {
	accessLog := zap.NewStdLog(logger).Writer()

	var handler http.Handler = router
	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(handler)
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(logger)))(handler)
	handler = handlers.LoggingHandler(accessLog, handler)
	return handler
}
