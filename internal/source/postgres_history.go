package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"elderguard/internal/models"

	"go.uber.org/zap"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PostgresHistory 历史记录表（设备侧写入，这里只读）
//
//	CREATE TABLE history_records (
//	    id                 TEXT PRIMARY KEY,  -- "YYYY-MM-DD_HH-MM-SS"
//	    temperature        DOUBLE PRECISION,
//	    humidity           DOUBLE PRECISION,
//	    sound_level        DOUBLE PRECISION,
//	    heart_rate         DOUBLE PRECISION,
//	    average_heart_rate DOUBLE PRECISION,
//	    spo2               DOUBLE PRECISION,
//	    ir                 DOUBLE PRECISION,
//	    red                DOUBLE PRECISION,
//	    fall_detected      INTEGER,
//	    fire_status        INTEGER,
//	    touch_sos          INTEGER,
//	    motion_detected    INTEGER
//	);
type PostgresHistory struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// NewPostgresHistory 创建历史记录仓库
func NewPostgresHistory(db *sql.DB, table string, logger *zap.Logger) (*PostgresHistory, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid history table name: %q", table)
	}
	return &PostgresHistory{
		db:     db,
		table:  table,
		logger: logger,
	}, nil
}

// FetchRange 查询 id 位于 [from, to] 的记录，按 id 升序
func (r *PostgresHistory) FetchRange(ctx context.Context, from, to string) ([]models.HistoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			id,
			COALESCE(temperature, 0),
			COALESCE(humidity, 0),
			COALESCE(sound_level, 0),
			COALESCE(heart_rate, 0),
			COALESCE(average_heart_rate, 0),
			COALESCE(spo2, 0),
			COALESCE(ir, 0),
			COALESCE(red, 0),
			COALESCE(fall_detected, 0),
			COALESCE(fire_status, 0),
			COALESCE(touch_sos, 0),
			COALESCE(motion_detected, 0)
		FROM %s
		WHERE id >= $1 AND id <= $2
		ORDER BY id ASC
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var rec models.HistoryRecord
		var fall, fire, sos, motion int
		if err := rows.Scan(
			&rec.ID,
			&rec.Temperature,
			&rec.Humidity,
			&rec.SoundLevel,
			&rec.HeartRate,
			&rec.AverageHeartRate,
			&rec.SpO2,
			&rec.IR,
			&rec.Red,
			&fall,
			&fire,
			&sos,
			&motion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.FallDetected = models.Flag(fall)
		rec.FireStatus = models.Flag(fire)
		rec.TouchSOS = models.Flag(sos)
		rec.MotionDetected = models.Flag(motion)
		// 历史记录的时间戳即其键
		rec.Timestamp = rec.ID
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	r.logger.Debug("History range fetched",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("count", len(records)),
	)

	return records, nil
}
