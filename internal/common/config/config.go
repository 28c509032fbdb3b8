package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const prefixKey = "__service_prefix"

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds the token verification settings.
type JWTConfig struct {
	Secret string
	Issuer string
}

// KafkaConfig holds broker and consumer-group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment and an optional .env file.
// Keys are looked up first with the service prefix (e.g. RENTAL_SERVICE_PORT)
// and then without it, so shared infrastructure settings need no prefix.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.Set(prefixKey, strings.ToUpper(prefix))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ISSUER", "jalanria")
	return v, nil
}

// GetString returns the prefixed value for key, falling back to the bare key.
func GetString(v *viper.Viper, key string) string {
	if p := v.GetString(prefixKey); p != "" {
		if s := v.GetString(p + "_" + key); s != "" {
			return s
		}
	}
	return v.GetString(key)
}

// GetDuration parses a duration setting, returning def when unset or malformed.
func GetDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := GetString(v, key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetServicePort returns the listen address, always in ":port" form.
func GetServicePort(v *viper.Viper, key string) string {
	port := GetString(v, key)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the deployment environment name.
func GetAppEnv(v *viper.Viper) string {
	return GetString(v, "APP_ENV")
}

// LoadDatabaseConfig builds the database settings; dbNameKey names the service's own database key.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:     GetString(v, "DB_HOST"),
		Port:     GetString(v, "DB_PORT"),
		User:     GetString(v, "DB_USER"),
		Password: GetString(v, "DB_PASSWORD"),
		DBName:   GetString(v, dbNameKey),
		SSLMode:  GetString(v, "DB_SSLMODE"),
	}
}

// LoadJWTConfig builds the JWT settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret: GetString(v, "JWT_SECRET"),
		Issuer: GetString(v, "JWT_ISSUER"),
	}
}

// LoadKafkaConfig builds the Kafka settings from a comma-separated broker list.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(GetString(v, "KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: GetString(v, "KAFKA_GROUP_PREFIX"),
	}
}

// LoadRedisConfig builds the Redis settings.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     GetString(v, "REDIS_ADDR"),
		Password: GetString(v, "REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}
