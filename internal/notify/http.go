package notify

import (
	"context"
	"fmt"
	"time"

	"elderguard/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// sendResponse 邮件网关响应 {success, message}
type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPChannel 通过 HTTP 邮件网关（POST /api/send-email）发送通知
type HTTPChannel struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewHTTPChannel 创建 HTTP 通知通道（单次尝试，不开启 resty 重试）
func NewHTTPChannel(url string, timeout time.Duration, logger *zap.Logger) *HTTPChannel {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPChannel{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// Send 发送通知
func (c *HTTPChannel) Send(ctx context.Context, n models.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	var result, failure sendResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(n).
		SetResult(&result).
		SetError(&failure).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("failed to call notification gateway: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Notification gateway returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", failure.Message),
		)
		return fmt.Errorf("notification gateway error: %s (status: %d)", failure.Message, resp.StatusCode())
	}
	if !result.Success {
		return fmt.Errorf("notification gateway rejected message: %s", result.Message)
	}

	c.logger.Debug("Notification accepted by gateway",
		zap.String("kind", string(n.Kind)),
	)
	return nil
}
