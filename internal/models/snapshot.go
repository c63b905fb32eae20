package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimestampLayout 设备时间戳格式 "YYYY-MM-DD_HH-MM-SS"（字典序即时间序）
const TimestampLayout = "2006-01-02_15-04-05"

// Flag 设备上报的危险标志位（0/1）
// 设备侧可能写入数字、布尔值或 null，统一解码为整数；缺失/null 视为 0
type Flag int

// Active 标志位是否为真
func (f Flag) Active() bool {
	return f != 0
}

// UnmarshalJSON 兼容数字 / 布尔 / 数字字符串 / null
func (f *Flag) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	switch string(data) {
	case "true":
		*f = 1
		return nil
	case "false":
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = Flag(int(n))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid flag value: %s", string(data))
	}
	if s == "" {
		*f = 0
		return nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid flag value: %q", s)
	}
	*f = Flag(i)
	return nil
}

// Snapshot 设备某一时刻的完整状态（与 Live / History 记录字段一致）
// 读取后不可修改，轮询只替换"上一次观测"的引用
type Snapshot struct {
	// 环境
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	SoundLevel  float64 `json:"soundLevel"`

	// 生命体征
	HeartRate        float64 `json:"heartRate"`
	AverageHeartRate float64 `json:"averageHeartRate"`
	SpO2             float64 `json:"SpO2"`
	IR               float64 `json:"IR"`  // 血氧传感器原始红外值
	Red              float64 `json:"Red"` // 血氧传感器原始红光值

	// 危险标志位
	FallDetected   Flag `json:"fallDetected"`
	FireStatus     Flag `json:"fireStatus"`
	TouchSOS       Flag `json:"touchSOS"`
	MotionDetected Flag `json:"motionDetected"`

	// 设备时间戳 "YYYY-MM-DD_HH-MM-SS"，可能为空
	Timestamp string `json:"timestamp"`
}

// FormatTimestamp 将时间编码为设备时间戳格式（精确到秒）
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp 解析设备时间戳（按 loc 时区解释；loc 为空时使用本地时区）
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// IsValidTimestamp 检查字符串是否为合法的设备时间戳
func IsValidTimestamp(s string) bool {
	if len(s) != len(TimestampLayout) {
		return false
	}
	_, err := time.Parse(TimestampLayout, s)
	return err == nil
}
