package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"elderguard/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FirebaseSource Firebase Realtime Database REST 客户端
// 实时记录位于 /<LivePath>.json，历史集合位于 /<HistoryPath>.json（以时间戳为键）
type FirebaseSource struct {
	httpClient  *resty.Client
	auth        string
	livePath    string
	historyPath string
	logger      *zap.Logger
}

// FirebaseOptions Firebase 客户端参数
type FirebaseOptions struct {
	BaseURL     string
	Auth        string
	LivePath    string
	HistoryPath string
	Timeout     time.Duration
}

// NewFirebaseSource 创建 Firebase 数据源（不做重试：单次读取失败由轮询的下一个 tick 兜底）
func NewFirebaseSource(opts FirebaseOptions, logger *zap.Logger) *FirebaseSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &FirebaseSource{
		httpClient:  client,
		auth:        opts.Auth,
		livePath:    strings.Trim(opts.LivePath, "/"),
		historyPath: strings.Trim(opts.HistoryPath, "/"),
		logger:      logger,
	}
}

func (s *FirebaseSource) request(ctx context.Context) *resty.Request {
	req := s.httpClient.R().SetContext(ctx)
	if s.auth != "" {
		req.SetQueryParam("auth", s.auth)
	}
	return req
}

// FetchLive 读取实时记录
func (s *FirebaseSource) FetchLive(ctx context.Context) (*models.Snapshot, error) {
	resp, err := s.request(ctx).Get("/" + s.livePath + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to call firebase: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("firebase returned %s", resp.Status())
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || string(body) == "null" {
		return nil, ErrNoData
	}

	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live snapshot: %w", err)
	}
	return &snap, nil
}

// FetchRange 按键范围查询历史集合（orderBy="$key" + startAt/endAt，闭区间）
func (s *FirebaseSource) FetchRange(ctx context.Context, from, to string) ([]models.HistoryRecord, error) {
	resp, err := s.request(ctx).
		SetQueryParams(map[string]string{
			"orderBy": strconv.Quote("$key"),
			"startAt": strconv.Quote(from),
			"endAt":   strconv.Quote(to),
		}).
		Get("/" + s.historyPath + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to call firebase: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("firebase returned %s", resp.Status())
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || string(body) == "null" {
		return []models.HistoryRecord{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	records := make([]models.HistoryRecord, 0, len(raw))
	for id, value := range raw {
		rec := models.HistoryRecord{ID: id}
		// 非对象的值只保留 id
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			if err := json.Unmarshal(trimmed, &rec.Snapshot); err != nil {
				s.logger.Warn("Skipping undecodable history record",
					zap.String("id", id),
					zap.Error(err),
				)
				continue
			}
		}
		// 与 Postgres 一致：缺少时间戳时以键补齐
		if rec.Timestamp == "" {
			rec.Timestamp = id
		}
		records = append(records, rec)
	}

	// JSON 对象无序，重新按键排序
	sortRecordsByID(records)
	return records, nil
}
