package config

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TelegramBotToken    string  `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int     `env:"TELEGRAM_POLL_TIMEOUT,default=60"`
	AdminChatIDs        []int64 `env:"ADMIN_CHAT_IDS"`

	DBPath     string `env:"DB_PATH,default=f1hub.db"`
	BackupDir  string `env:"BACKUP_DIR,default=backups"`
	BackupKeep int    `env:"BACKUP_KEEP,default=2"`

	ErgastBaseURL    string        `env:"ERGAST_BASE_URL,default=https://api.jolpi.ca/ergast/f1"`
	ErgastTimeout    time.Duration `env:"ERGAST_TIMEOUT,default=15s"`
	CacheDir         string        `env:"CACHE_DIR,default=ergast_cache"`
	ScheduleCacheTTL time.Duration `env:"SCHEDULE_CACHE_TTL,default=6h"`
	ResultsCacheTTL  time.Duration `env:"RESULTS_CACHE_TTL,default=30m"`

	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`

	ReminderPollInterval time.Duration `env:"REMINDER_POLL_INTERVAL,default=5m"`
	ResultsPollInterval  time.Duration `env:"RESULTS_POLL_INTERVAL,default=10m"`
	QualiPollInterval    time.Duration `env:"QUALI_POLL_INTERVAL,default=15m"`
	WarmupInterval       time.Duration `env:"WARMUP_INTERVAL,default=30m"`
	BackupSchedule       string        `env:"BACKUP_SCHEDULE,default=0 3 * * *"`

	DefaultTimezone   string `env:"DEFAULT_TIMEZONE,default=UTC"`
	DefaultNotifyLead int    `env:"DEFAULT_NOTIFY_LEAD_MINUTES,default=60"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load(ctx context.Context) (Config, error) {
	// Missing .env is fine, the environment may be set by the supervisor.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
