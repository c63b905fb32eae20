package evaluator

import (
	"time"

	"elderguard/internal/models"

	"github.com/google/uuid"
)

// hazardRule 单个危险标志位与其报警类型
type hazardRule struct {
	kind models.WarningKind
	flag func(s *models.Snapshot) models.Flag
}

// 固定评估顺序：fire → fall → sos
var hazardRules = []hazardRule{
	{kind: models.KindFire, flag: func(s *models.Snapshot) models.Flag { return s.FireStatus }},
	{kind: models.KindFall, flag: func(s *models.Snapshot) models.Flag { return s.FallDetected }},
	{kind: models.KindSOS, flag: func(s *models.Snapshot) models.Flag { return s.TouchSOS }},
}

// Classifier 报警分类器：比较上一次与本次快照，按跳变产生报警事件
// 纯函数，无副作用；Now / NewID 可在测试中替换
type Classifier struct {
	Now   func() time.Time
	NewID func() string
}

// NewClassifier 创建分类器
func NewClassifier() *Classifier {
	return &Classifier{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// Classify 比较 prev（首个 tick 时为 nil）与 cur，返回本次应触发的报警事件
//
// 标志位 f 触发条件：cur.f 为真，且 prev 为空 / prev.f 为假 / prev.f != cur.f
// 标志位保持为真时不会重复触发
func (c *Classifier) Classify(prev, cur *models.Snapshot) []models.WarningEvent {
	if cur == nil {
		return nil
	}

	timestamp := cur.Timestamp
	var events []models.WarningEvent
	for _, rule := range hazardRules {
		now := rule.flag(cur)
		if !now.Active() {
			continue
		}
		if prev != nil {
			before := rule.flag(prev)
			if before.Active() && before == now {
				continue
			}
		}

		// 设备未写时间戳时使用当前时间
		if timestamp == "" {
			timestamp = models.FormatTimestamp(c.Now())
		}
		events = append(events, models.NewWarningEvent(c.NewID(), rule.kind, timestamp))
	}

	return events
}
