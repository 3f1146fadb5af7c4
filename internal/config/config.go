package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Config struct {
	Env  string
	Port string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	PublicArchivePath    string
	ArchiveSyncAfterBulk bool

	BackupDir      string
	BackupInterval time.Duration
	BackupKeep     int

	SessionKey     string
	AllowedOrigins []string
	AdminUsername  string
	AdminPassword  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APICacheTTL   time.Duration

	YtDlpPath      string
	ExtractTimeout time.Duration

	LogLevel string
}

// GetEnv returns env var or default when empty.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:  GetEnv("ENV", "development"),
		Port: GetEnv("PORT", "8080"),

		DBDriver:    GetEnv("DB_DRIVER", DriverSQLite),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  GetEnv("SQLITE_PATH", "instance/videos.db"),

		PublicArchivePath:    GetEnv("PUBLIC_ARCHIVE_PATH", "public_archive/videos.json"),
		ArchiveSyncAfterBulk: getBool("ARCHIVE_SYNC_AFTER_BULK", true),

		BackupDir:      GetEnv("BACKUP_DIR", "backups"),
		BackupInterval: getDuration("BACKUP_INTERVAL", 24*time.Hour),
		BackupKeep:     getInt("BACKUP_KEEP", 10),

		SessionKey:     os.Getenv("SESSION_KEY"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		AdminUsername:  GetEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  GetEnv("ADMIN_PASSWORD", "admin123"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
		APICacheTTL:   getDuration("API_CACHE_TTL", 5*time.Minute),

		YtDlpPath:      GetEnv("YTDLP_PATH", "yt-dlp"),
		ExtractTimeout: getDuration("EXTRACT_TIMEOUT", 20*time.Second),

		LogLevel: GetEnv("LOG_LEVEL", "info"),
	}

	if cfg.DBDriver == "postgres" {
		cfg.DBDriver = DriverPostgres
	}
	if cfg.BackupKeep < 1 {
		cfg.BackupKeep = 10
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// UsingDefaultAdminPassword reports whether the bootstrap admin still has the stock password.
func (c Config) UsingDefaultAdminPassword() bool {
	return c.AdminPassword == "admin123"
}
