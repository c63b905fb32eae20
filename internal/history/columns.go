package history

import "elderguard/internal/models"

// column 历史记录的一列（JSON 字段名 / 表头 / 取值）
type column struct {
	field   string
	header  string
	width   float64
	numeric bool
	value   func(r *models.HistoryRecord) interface{}
}

func flagValue(f models.Flag) interface{} { return int(f) }

var columns = []column{
	{field: "id", header: "Timestamp", width: 22, value: func(r *models.HistoryRecord) interface{} { return r.ID }},
	{field: "temperature", header: "Temperature (°C)", width: 16, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.Temperature }},
	{field: "humidity", header: "Humidity (%)", width: 14, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.Humidity }},
	{field: "soundLevel", header: "Sound Level", width: 14, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.SoundLevel }},
	{field: "heartRate", header: "Heart Rate", width: 12, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.HeartRate }},
	{field: "averageHeartRate", header: "Avg Heart Rate", width: 16, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.AverageHeartRate }},
	{field: "SpO2", header: "SpO2 (%)", width: 10, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.SpO2 }},
	{field: "IR", header: "IR", width: 10, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.IR }},
	{field: "Red", header: "Red", width: 10, numeric: true, value: func(r *models.HistoryRecord) interface{} { return r.Red }},
	{field: "fallDetected", header: "Fall", width: 8, numeric: true, value: func(r *models.HistoryRecord) interface{} { return flagValue(r.FallDetected) }},
	{field: "fireStatus", header: "Fire", width: 8, numeric: true, value: func(r *models.HistoryRecord) interface{} { return flagValue(r.FireStatus) }},
	{field: "touchSOS", header: "SOS", width: 8, numeric: true, value: func(r *models.HistoryRecord) interface{} { return flagValue(r.TouchSOS) }},
	{field: "motionDetected", header: "Motion", width: 8, numeric: true, value: func(r *models.HistoryRecord) interface{} { return flagValue(r.MotionDetected) }},
}

func lookupColumn(field string) (column, bool) {
	for _, c := range columns {
		if c.field == field {
			return c, true
		}
	}
	// timestamp 与 id 相同
	if field == "timestamp" {
		return columns[0], true
	}
	return column{}, false
}
