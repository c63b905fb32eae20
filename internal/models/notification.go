package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNotification 通知参数校验失败
var ErrInvalidNotification = errors.New("invalid notification")

// Notification 发送给通知通道的消息
type Notification struct {
	Recipient   string      `json:"to"`
	Subject     string      `json:"subject"`
	DisplayName string      `json:"userName"`
	Message     string      `json:"message"`
	Kind        WarningKind `json:"warningType"`
}

// Validate 所有字段必填，kind 必须为 fall/fire/sos/other
func (n Notification) Validate() error {
	if strings.TrimSpace(n.Recipient) == "" ||
		strings.TrimSpace(n.Subject) == "" ||
		strings.TrimSpace(n.DisplayName) == "" ||
		strings.TrimSpace(n.Message) == "" ||
		n.Kind == "" {
		return fmt.Errorf("%w: missing required fields", ErrInvalidNotification)
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: invalid warning type %q", ErrInvalidNotification, n.Kind)
	}
	return nil
}

// DefaultDisplayName 未配置收件人名称时使用
const DefaultDisplayName = "Caregiver"

// Preferences 看护人配置的通知收件人
type Preferences struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName 收件人显示名称（为空时使用默认值）
func (p Preferences) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return DefaultDisplayName
	}
	return p.Name
}

// NotificationFor 由报警事件与收件人配置构建通知
func NotificationFor(event WarningEvent, prefs Preferences) Notification {
	return Notification{
		Recipient:   prefs.Email,
		Subject:     "ElderGuard Alert: " + event.Name,
		DisplayName: prefs.DisplayName(),
		Message:     event.Description,
		Kind:        event.Kind,
	}
}
