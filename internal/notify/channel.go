package notify

import (
	"context"

	"elderguard/internal/models"
)

// Channel 通知通道：只报告成功或失败，不做重试
type Channel interface {
	Send(ctx context.Context, n models.Notification) error
}

// DisabledChannel 通道未配置时使用，每次发送都返回 Reason
type DisabledChannel struct {
	Reason error
}

func (c DisabledChannel) Send(context.Context, models.Notification) error {
	return c.Reason
}
