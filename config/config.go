package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config files or the environment.
type AppConfig struct {
	AppPort       string
	JWTSecret     string
	TokenTTLHours int
	// Database
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for list caching and token revocation
	RedisEnabled     bool
	RedisHost        string
	RedisPort        int
	RedisDB          int
	RedisPassword    string
	ListCacheTTLSec  int
	RateLimitPerMin  int
	AllowedOrigins   []string
	MaxLoginFailures int
	// Timezone used to stamp created_at/updated_at
	Timezone string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Uploads
	StorageBackend      string
	UploadDir           string
	MaxUploadSizeMB     int
	AllowedExtensions   map[string][]string
	UploadPurgeEnabled  bool
	UploadPurgeAfterMin int
	// S3 compatible object storage
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

// DefaultAllowedExtensions is the upload allow-list grouped by category.
// Categories are informational only; an extension in any group is accepted.
var DefaultAllowedExtensions = map[string][]string{
	"image":    {".jpg", ".jpeg", ".png", ".gif"},
	"document": {".pdf", ".doc", ".docx", ".txt", ".xls", ".xlsx", ".ppt", ".pptx"},
	"video":    {".mp4", ".avi", ".mov"},
}

// ConfigPath is where Load looks for the optional JSON config file.
var ConfigPath = filepath.Join("config", "config.json")

// Load builds the application configuration. It should be called once during boot
// and the resulting value handed to every component that needs it.
func Load() (AppConfig, error) {
	var cfg AppConfig

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(ConfigPath, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", ConfigPath, err)
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set in environment variables")
	}
	return cfg, nil
}

// MaxUploadBytes returns the configured per-file upload limit in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.TokenTTLHours = getInt(app, "TokenTTLHours")
		out.RateLimitPerMin = getInt(app, "RateLimitPerMinute")
		out.MaxLoginFailures = getInt(app, "MaxLoginFailures")
		out.Timezone = getString(app, "Timezone")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
		out.ListCacheTTLSec = getInt(rds, "ListCacheTTLSec")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if up, ok := raw["upload"].(map[string]any); ok {
		out.StorageBackend = getString(up, "Backend")
		out.UploadDir = getString(up, "Dir")
		out.MaxUploadSizeMB = getInt(up, "MaxSizeMB")
		out.UploadPurgeEnabled = getBool(up, "PurgeEnabled")
		out.UploadPurgeAfterMin = getInt(up, "PurgeAfterMinutes")
		if groups, ok := up["AllowedExtensions"].(map[string]any); ok {
			out.AllowedExtensions = map[string][]string{}
			for name := range groups {
				out.AllowedExtensions[name] = normalizeExtensions(getStringSlice(groups, name))
			}
		}
	}

	if s3, ok := raw["s3"].(map[string]any); ok {
		out.S3Bucket = getString(s3, "Bucket")
		out.S3Region = getString(s3, "Region")
		out.S3Endpoint = getString(s3, "Endpoint")
		out.S3AccessKey = getString(s3, "AccessKey")
		out.S3SecretKey = getString(s3, "SecretKey")
		out.S3Prefix = getString(s3, "Prefix")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 12
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMin == 0 {
		c.RateLimitPerMin = 120
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.MaxLoginFailures == 0 {
		c.MaxLoginFailures = 5
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "vibecoding"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.ListCacheTTLSec == 0 {
		c.ListCacheTTLSec = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
	}
	if c.MaxUploadSizeMB == 0 {
		c.MaxUploadSizeMB = 10
	}
	if len(c.AllowedExtensions) == 0 {
		c.AllowedExtensions = DefaultAllowedExtensions
	}
	if c.UploadPurgeAfterMin == 0 {
		c.UploadPurgeAfterMin = 60
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	var errs []error
	intVar := func(key string, dst *int) {
		if v := getEnv(key, ""); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid integer value for %s: %w", key, err))
				return
			}
			*dst = i
		}
	}
	strVar := func(key string, dst *string) {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}
	boolVar := func(key string, dst *bool) {
		if v := getEnv(key, ""); v != "" {
			*dst = v == "true"
		}
	}

	strVar("APP_PORT", &c.AppPort)
	strVar("JWT_SECRET", &c.JWTSecret)
	intVar("TOKEN_TTL_HOURS", &c.TokenTTLHours)
	strVar("GIN_MODE", &c.GinMode)
	strVar("GIN_PATH", &c.GinPath)
	strVar("DB_DRIVER", &c.DBDriver)
	strVar("DATABASE_URI", &c.DatabaseURI)
	strVar("DB_HOST", &c.DBHost)
	strVar("DB_PORT", &c.DBPort)
	strVar("DB_USER", &c.DBUser)
	strVar("DB_PASSWORD", &c.DBPassword)
	strVar("DB_NAME", &c.DBName)
	boolVar("REDIS_ENABLED", &c.RedisEnabled)
	strVar("REDIS_HOST", &c.RedisHost)
	intVar("REDIS_PORT", &c.RedisPort)
	intVar("REDIS_DB", &c.RedisDB)
	strVar("REDIS_PASSWORD", &c.RedisPassword)
	intVar("LIST_CACHE_TTL_SEC", &c.ListCacheTTLSec)
	intVar("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMin)
	intVar("MAX_LOGIN_FAILURES", &c.MaxLoginFailures)
	strVar("TIMEZONE", &c.Timezone)
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	strVar("LOG_LEVEL", &c.LogLevel)
	strVar("LOG_PATH", &c.LogPath)
	intVar("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	intVar("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	intVar("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	boolVar("LOG_COMPRESS", &c.LogCompress)
	strVar("STORAGE_BACKEND", &c.StorageBackend)
	strVar("UPLOAD_DIR", &c.UploadDir)
	intVar("MAX_UPLOAD_SIZE_MB", &c.MaxUploadSizeMB)
	boolVar("UPLOAD_PURGE_ENABLED", &c.UploadPurgeEnabled)
	intVar("UPLOAD_PURGE_AFTER_MIN", &c.UploadPurgeAfterMin)
	strVar("S3_BUCKET", &c.S3Bucket)
	strVar("S3_REGION", &c.S3Region)
	strVar("S3_ENDPOINT", &c.S3Endpoint)
	strVar("S3_ACCESS_KEY", &c.S3AccessKey)
	strVar("S3_SECRET_KEY", &c.S3SecretKey)
	strVar("S3_PREFIX", &c.S3Prefix)

	return errors.Join(errs...)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// normalizeExtensions lowercases extensions and makes sure they carry a leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
