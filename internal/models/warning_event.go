package models

// WarningKind 报警类型
type WarningKind string

const (
	KindFall  WarningKind = "fall"
	KindFire  WarningKind = "fire"
	KindSOS   WarningKind = "sos"
	KindOther WarningKind = "other" // 仅用于通知接口，分类器不会产生
)

// Valid 是否为通知接口允许的类型
func (k WarningKind) Valid() bool {
	switch k {
	case KindFall, KindFire, KindSOS, KindOther:
		return true
	}
	return false
}

// WarningEvent 由状态跳变产生的报警事件，创建后不再修改
type WarningEvent struct {
	EventID   string      `json:"event_id"` // 仅用于日志/报警流关联，不参与去重
	Kind      WarningKind `json:"kind"`
	Timestamp string      `json:"timestamp"` // 拷贝自触发的 Snapshot

	// 展示字段
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// Key 去重键 (kind, timestamp)
func (e WarningEvent) Key() string {
	return string(e.Kind) + "_" + e.Timestamp
}

// Presentation 报警卡片展示信息
type Presentation struct {
	Name        string
	Description string
	Icon        string
	Color       string
}

var presentations = map[WarningKind]Presentation{
	KindFire: {
		Name:        "Fire warning",
		Description: "A fire has been detected in the vicinity.",
		Icon:        "🔥",
		Color:       "#FF7043",
	},
	KindFall: {
		Name:        "Fall Detected",
		Description: "A fall has been detected.",
		Icon:        "🤕",
		Color:       "#FFC107",
	},
	KindSOS: {
		Name:        "SOS Detected",
		Description: "An SOS signal has been triggered.",
		Icon:        "🚨",
		Color:       "#1E88E5",
	},
}

// PresentationFor 获取报警类型的展示信息
func PresentationFor(kind WarningKind) Presentation {
	if p, ok := presentations[kind]; ok {
		return p
	}
	return Presentation{
		Name:        "Warning",
		Description: "An abnormal event has been detected.",
		Icon:        "⚠️",
		Color:       "#00C9A7",
	}
}

// NewWarningEvent 构建报警事件（展示字段按类型填充）
func NewWarningEvent(eventID string, kind WarningKind, timestamp string) WarningEvent {
	p := PresentationFor(kind)
	return WarningEvent{
		EventID:     eventID,
		Kind:        kind,
		Timestamp:   timestamp,
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		Color:       p.Color,
	}
}
