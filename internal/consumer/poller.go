package consumer

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"elderguard/internal/metrics"
	"elderguard/internal/source"

	"go.uber.org/zap"
)

// PollerOptions 轮询参数
type PollerOptions struct {
	Interval     time.Duration
	Jitter       time.Duration // 每次间隔额外增加 [0, Jitter) 的随机延迟
	FetchTimeout time.Duration
}

// Poller 实时记录轮询器
// tick 串行执行，不会重叠；未能按时执行的 tick 不补跑
type Poller struct {
	source   source.LiveSource
	pipeline *Pipeline
	opts     PollerOptions
	logger   *zap.Logger
}

// NewPoller 创建轮询器
func NewPoller(src source.LiveSource, pipeline *Pipeline, opts PollerOptions, logger *zap.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = opts.Interval
	}
	return &Poller{
		source:   src,
		pipeline: pipeline,
		opts:     opts,
		logger:   logger,
	}
}

// Start 启动轮询，阻塞直到 ctx 取消
// 取消后不再调度新的 tick，进行中的 tick 会执行完毕
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Live poller started",
		zap.Duration("interval", p.opts.Interval),
		zap.Duration("jitter", p.opts.Jitter),
	)

	// 立即执行一次
	p.tick(ctx)

	timer := time.NewTimer(p.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Live poller stopped")
			return nil
		case <-timer.C:
			p.tick(ctx)
			timer.Reset(p.nextDelay())
		}
	}
}

func (p *Poller) nextDelay() time.Duration {
	if p.opts.Jitter <= 0 {
		return p.opts.Interval
	}
	return p.opts.Interval + time.Duration(rand.Int63n(int64(p.opts.Jitter)))
}

// tick fetch → classify → dispatch
func (p *Poller) tick(ctx context.Context) {
	// 脱离外部取消，保证停止时进行中的 tick 能完成
	tickCtx := context.WithoutCancel(ctx)

	fetchCtx, cancel := context.WithTimeout(tickCtx, p.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	snap, err := p.source.FetchLive(fetchCtx)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, source.ErrNoData) {
			metrics.PollTicks.WithLabelValues("no_data").Inc()
			p.logger.Debug("Live record not found")
			return
		}
		// 保留上一次快照作为基线
		metrics.PollTicks.WithLabelValues("fetch_error").Inc()
		p.logger.Error("Failed to fetch live snapshot", zap.Error(err))
		return
	}

	metrics.PollTicks.WithLabelValues("ok").Inc()
	p.pipeline.Process(tickCtx, snap)
}
