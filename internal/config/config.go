package config

import (
	"time"

	"elderguard/common/config"
)

// Config ElderGuard 服务配置（elderguard-alarm 与 elderguard-data 共用）
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// 数据源配置
	Source struct {
		LiveBackend    string // "firebase" 或 "redis"
		HistoryBackend string // "firebase" 或 "postgres"

		Firebase struct {
			URL         string        // Realtime Database 根地址
			Auth        string        // 数据库密钥 / ID token（可选）
			LivePath    string        // 实时记录路径，默认 "Live"
			HistoryPath string        // 历史集合路径，默认 "History"
			Timeout     time.Duration // 单次请求超时
		}

		RedisLiveKey string // redis 模式下实时记录的键
		HistoryTable string // postgres 模式下的历史表名
	}

	// 轮询配置
	Poll struct {
		Interval     time.Duration // 轮询间隔，默认 5 秒
		Jitter       time.Duration // 每次轮询附加的随机抖动上限
		FetchTimeout time.Duration // 单次 tick 的超时
	}

	// MQTT 推送（可替代轮询）
	Push struct {
		Enabled bool
		Topic   string
	}

	// 去重账本
	Ledger struct {
		Backend    string        // "redis" 或 "memory"
		KeyPrefix  string        // redis 键前缀
		TTL        time.Duration // 已发送记录的保留时间
		PendingTTL time.Duration // 发送中占位的保留时间
	}

	// 通知配置
	Notify struct {
		Mode    string        // "http" 或 "smtp"
		URL     string        // http 模式：send-email 接口地址
		Timeout time.Duration // http 模式：请求超时

		SMTP struct {
			Host     string
			Port     int
			Username string
			Password string
			From     string
		}
	}

	// 报警流（供前端报警列表读取）
	AlertFeed struct {
		Stream string
		MaxLen int64
	}

	// 通知偏好（收件人）存储键
	Preferences struct {
		Key string
	}

	HTTP struct {
		Addr        string
		MetricsAddr string
	}

	// 时间戳编码使用的时区（设备写入的是本地时间）
	Timezone string

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "elderguard"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "elderguard-alarm"
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Source.LiveBackend = getEnv("LIVE_BACKEND", "firebase")
	cfg.Source.HistoryBackend = getEnv("HISTORY_BACKEND", "firebase")
	cfg.Source.Firebase.URL = getEnv("FIREBASE_URL", "")
	cfg.Source.Firebase.Auth = getEnv("FIREBASE_AUTH", "")
	cfg.Source.Firebase.LivePath = getEnv("FIREBASE_LIVE_PATH", "Live")
	cfg.Source.Firebase.HistoryPath = getEnv("FIREBASE_HISTORY_PATH", "History")
	cfg.Source.Firebase.Timeout = config.GetDuration("FIREBASE_TIMEOUT", 10*time.Second)
	cfg.Source.RedisLiveKey = getEnv("REDIS_LIVE_KEY", "elderguard:live")
	cfg.Source.HistoryTable = getEnv("HISTORY_TABLE", "history_records")

	cfg.Poll.Interval = config.GetDuration("POLL_INTERVAL", 5*time.Second)
	cfg.Poll.Jitter = config.GetDuration("POLL_JITTER", 0)
	cfg.Poll.FetchTimeout = config.GetDuration("FETCH_TIMEOUT", 4*time.Second)

	cfg.Push.Enabled = getEnv("PUSH_ENABLED", "false") == "true"
	cfg.Push.Topic = getEnv("PUSH_TOPIC", "elderguard/live")

	cfg.Ledger.Backend = getEnv("LEDGER_BACKEND", "redis")
	cfg.Ledger.KeyPrefix = getEnv("LEDGER_PREFIX", "elderguard:ledger:")
	cfg.Ledger.TTL = config.GetDuration("LEDGER_TTL", 24*time.Hour)
	cfg.Ledger.PendingTTL = config.GetDuration("LEDGER_PENDING_TTL", time.Minute)

	cfg.Notify.Mode = getEnv("NOTIFY_MODE", "http")
	cfg.Notify.URL = getEnv("NOTIFY_URL", "http://localhost:8080/api/send-email")
	cfg.Notify.Timeout = config.GetDuration("NOTIFY_TIMEOUT", 15*time.Second)
	cfg.Notify.SMTP.Host = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.Notify.SMTP.Port = config.ParseInt(getEnv("SMTP_PORT", "587"), 587)
	cfg.Notify.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.Notify.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.Notify.SMTP.From = getEnv("SMTP_FROM", cfg.Notify.SMTP.Username)

	cfg.AlertFeed.Stream = getEnv("ALERT_STREAM", "elderguard:alerts")
	cfg.AlertFeed.MaxLen = int64(config.ParseInt(getEnv("ALERT_STREAM_MAXLEN", "1000"), 1000))

	cfg.Preferences.Key = getEnv("PREFERENCES_KEY", "elderguard:prefs:email")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.MetricsAddr = getEnv("METRICS_ADDR", ":9102")

	cfg.Timezone = getEnv("TIMEZONE", "Local")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// Location 解析配置的时区，失败时回退到本地时区
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	return config.GetEnv(key, defaultValue)
}
