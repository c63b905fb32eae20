package notify

import (
	"context"
	"fmt"
	"time"

	"elderguard/internal/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// mailSender *mail.Client 的发送部分
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPOptions SMTP 参数
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// MailChannel 直接通过 SMTP 发送 HTML 报警邮件
type MailChannel struct {
	sender mailSender
	from   string
	now    func() time.Time
	logger *zap.Logger
}

// NewMailChannel 创建 SMTP 通知通道（PLAIN 认证 + STARTTLS）
func NewMailChannel(opts SMTPOptions, logger *zap.Logger) (*MailChannel, error) {
	if opts.Username == "" || opts.Password == "" {
		return nil, fmt.Errorf("smtp credentials not configured")
	}
	if opts.From == "" {
		opts.From = opts.Username
	}

	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newMailChannel(client, opts.From, logger), nil
}

func newMailChannel(sender mailSender, from string, logger *zap.Logger) *MailChannel {
	return &MailChannel{
		sender: sender,
		from:   from,
		now:    time.Now,
		logger: logger,
	}
}

// Send 校验、渲染并发送邮件
func (c *MailChannel) Send(ctx context.Context, n models.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	msg, err := c.buildMessage(n)
	if err != nil {
		return err
	}

	if err := c.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Info("Alert email sent",
		zap.String("kind", string(n.Kind)),
		zap.String("subject", n.Subject),
	)
	return nil
}

func (c *MailChannel) buildMessage(n models.Notification) (*mail.Msg, error) {
	body, err := RenderEmail(n, c.now())
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
