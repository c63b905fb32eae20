package dispatcher

import (
	"context"
	"strings"

	"elderguard/internal/metrics"
	"elderguard/internal/models"

	"go.uber.org/zap"
)

// Channel 通知通道（HTTP / SMTP）
type Channel interface {
	Send(ctx context.Context, n models.Notification) error
}

// PreferencesProvider 发送时读取收件人配置
type PreferencesProvider interface {
	Get(ctx context.Context) (models.Preferences, error)
}

// Outcome 单个事件的分发结果
type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"      // 未配置收件人
	OutcomeLedgerError Outcome = "ledger_error" // 登记簿不可用，放弃发送以保证至多一次
)

// Result 分发结果
type Result struct {
	Key     string
	Kind    models.WarningKind
	Outcome Outcome
	Err     error
}

// Dispatcher 通知分发器：按 (kind, timestamp) 去重，每个新事件只调用一次通知通道
// 发送失败不重试，键被释放
type Dispatcher struct {
	ledger  Ledger
	channel Channel
	prefs   PreferencesProvider
	logger  *zap.Logger
}

// NewDispatcher 创建分发器
func NewDispatcher(ledger Ledger, channel Channel, prefs PreferencesProvider, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		ledger:  ledger,
		channel: channel,
		prefs:   prefs,
		logger:  logger,
	}
}

// Dispatch 按输入顺序依次分发事件
func (d *Dispatcher) Dispatch(ctx context.Context, events []models.WarningEvent) []Result {
	if len(events) == 0 {
		return nil
	}

	results := make([]Result, 0, len(events))

	prefs, err := d.prefs.Get(ctx)
	if err != nil {
		d.logger.Error("Failed to load notification preferences", zap.Error(err))
	}

	for _, event := range events {
		res := d.dispatchOne(ctx, event, prefs, err)
		metrics.Dispatches.WithLabelValues(string(event.Kind), string(res.Outcome)).Inc()
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, event models.WarningEvent, prefs models.Preferences, prefsErr error) Result {
	key := event.Key()
	res := Result{Key: key, Kind: event.Kind}

	if prefsErr != nil || strings.TrimSpace(prefs.Email) == "" {
		d.logger.Warn("No notification recipient configured, skipping",
			zap.String("key", key),
			zap.String("event_id", event.EventID),
		)
		res.Outcome = OutcomeSkipped
		res.Err = prefsErr
		return res
	}

	reserved, err := d.ledger.Reserve(ctx, key)
	if err != nil {
		d.logger.Error("Dispatch ledger unavailable, notification not sent",
			zap.String("key", key),
			zap.Error(err),
		)
		res.Outcome = OutcomeLedgerError
		res.Err = err
		return res
	}
	if !reserved {
		d.logger.Debug("Duplicate warning event, already notified",
			zap.String("key", key),
			zap.String("event_id", event.EventID),
		)
		res.Outcome = OutcomeDuplicate
		return res
	}

	if err := d.channel.Send(ctx, models.NotificationFor(event, prefs)); err != nil {
		d.logger.Error("Failed to send notification",
			zap.String("key", key),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		if relErr := d.ledger.Release(ctx, key); relErr != nil {
			d.logger.Warn("Failed to release ledger key",
				zap.String("key", key),
				zap.Error(relErr),
			)
		}
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	if err := d.ledger.Commit(ctx, key); err != nil {
		// 已发送，pending 键在过期前仍会挡住重复
		d.logger.Warn("Failed to commit ledger key",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	d.logger.Info("Notification sent",
		zap.String("key", key),
		zap.String("event_id", event.EventID),
		zap.String("kind", string(event.Kind)),
	)
	res.Outcome = OutcomeSent
	return res
}
