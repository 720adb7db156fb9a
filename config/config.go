// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	PurgeExpired = pflag.Bool("purge-expired", false, "Purges expired trash items once and exits")

	validLogLevels      = []string{"debug", "info", "warn", "error", "fatal"}
	validLocales        = []string{"vi", "en"}
	validDrivers        = []string{"sqlite", "postgres"}
	validStorageTypes   = []string{"s3", "local"}
	validCacheTypes     = []string{"memory", "redis"}
	validAssetPolicies  = []string{"orphan", "abort"}
	defaultAllowedTypes = []string{
		"image/jpeg", "image/png", "image/webp", "image/gif",
		"video/mp4", "video/quicktime", "video/x-msvideo", "video/webm",
	}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	// A missing .env is fine, the variables may come from the environment
	_ = godotenv.Load()

	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Info("No config.toml found, using defaults and environment")
	}

	if err := validate(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

func bindEnvs() {
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")
	v.BindEnv("app.locale", "APP_LOCALE")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.endpoint", "S3_ENDPOINT")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")
	v.BindEnv("upload.allowed_types", "UPLOAD_ALLOWED_TYPES")

	v.BindEnv("trash.retention_days", "TRASH_RETENTION_DAYS")
	v.BindEnv("trash.warn_days", "TRASH_WARN_DAYS")
	v.BindEnv("trash.purge_schedule", "TRASH_PURGE_SCHEDULE")
	v.BindEnv("trash.asset_failure_policy", "TRASH_ASSET_FAILURE_POLICY")

	v.BindEnv("cache.type", "CACHE_TYPE")
	v.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	v.BindEnv("cache.redis_password", "CACHE_REDIS_PASSWORD")
	v.BindEnv("cache.redis_db", "CACHE_REDIS_DB")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.locale", "vi")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db?_foreign_keys=on")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.public_url", "/storage")

	v.SetDefault("upload.max_size", 50)
	v.SetDefault("upload.allowed_types", defaultAllowedTypes)

	v.SetDefault("trash.retention_days", 60)
	v.SetDefault("trash.warn_days", 7)
	v.SetDefault("trash.purge_schedule", "0 3 * * *")
	v.SetDefault("trash.asset_failure_policy", "orphan")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("security.rate_limit", 20)
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validLocales, v.GetString("app.locale")) {
		return errors.New("invalid locale provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		return fmt.Errorf("jwt.secret is missing, set it in config.toml or JWT_SECRET. A random one you can use:\n\n%s", genSecret())
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("s3.region") == "" {
			return errors.New("s3 region can't be empty")
		}
		if v.GetString("s3.access_key_id") == "" {
			return errors.New("s3 access key id can't be empty")
		}
		if v.GetString("s3.secret_access_key") == "" {
			return errors.New("s3 secret access key can't be empty")
		}
		if v.GetString("s3.bucket") == "" {
			return errors.New("s3 bucket can't be empty")
		}
	case "local":
		if v.GetString("storage.local_path") == "" {
			return errors.New("storage.local_path can't be empty")
		}
	default:
		return errors.New("invalid storage type provided")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if len(v.GetStringSlice("upload.allowed_types")) == 0 {
		zap.L().Warn("No upload.allowed_types specified, any file type will be accepted")
	}

	if v.GetInt("trash.retention_days") <= 0 {
		return errors.New("trash.retention_days must be bigger than 0")
	}

	if v.GetInt("trash.warn_days") < 0 {
		return errors.New("trash.warn_days can't be negative")
	}

	if v.GetString("trash.purge_schedule") == "" {
		return errors.New("trash.purge_schedule can't be empty")
	}

	if !slices.Contains(validAssetPolicies, v.GetString("trash.asset_failure_policy")) {
		return errors.New("trash.asset_failure_policy must be orphan or abort")
	}

	if !slices.Contains(validCacheTypes, v.GetString("cache.type")) {
		return errors.New("invalid cache type provided")
	}

	if v.GetString("cache.type") == "redis" && v.GetString("cache.redis_addr") == "" {
		return errors.New("cache.redis_addr can't be empty")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	return nil
}
