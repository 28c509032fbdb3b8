package config

import (
	"time"

	"github.com/jalanria/service-rental/internal/common/config"
)

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    config.DatabaseConfig
	JWTConfig   config.JWTConfig
	KafkaConfig config.KafkaConfig
	RedisConfig config.RedisConfig

	MapsAPIKey string
	MapsRegion string

	RoutingTimeout time.Duration
	GeocodeTimeout time.Duration
	WizardTTL      time.Duration
	LockWait       time.Duration
	PersistTimeout time.Duration
	NotifyTimeout  time.Duration
	RequestTimeout time.Duration
	Location       *time.Location
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}

	region := config.GetString(v, "MAPS_REGION")
	if region == "" {
		region = "id"
	}

	return &ServiceConfig{
		Port:        config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:      config.GetAppEnv(v),
		DBConfig:    config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:   config.LoadJWTConfig(v),
		KafkaConfig: config.LoadKafkaConfig(v),
		RedisConfig: config.LoadRedisConfig(v),

		MapsAPIKey: config.GetString(v, "MAPS_API_KEY"),
		MapsRegion: region,

		RoutingTimeout: config.GetDuration(v, "ROUTING_TIMEOUT", 5*time.Second),
		GeocodeTimeout: config.GetDuration(v, "GEOCODE_TIMEOUT", 5*time.Second),
		WizardTTL:      config.GetDuration(v, "WIZARD_TTL", 24*time.Hour),
		LockWait:       config.GetDuration(v, "LOCK_WAIT", 10*time.Second),
		PersistTimeout: config.GetDuration(v, "PERSIST_TIMEOUT", 10*time.Second),
		NotifyTimeout:  config.GetDuration(v, "NOTIFY_TIMEOUT", 5*time.Second),
		RequestTimeout: config.GetDuration(v, "REQUEST_TIMEOUT", 12*time.Second),
		Location:       loadLocation(config.GetString(v, "TIMEZONE")),
	}, nil
}

// loadLocation resolves the pickup time zone, defaulting to Bali time.
// Unknown names fall back to UTC.
func loadLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Makassar"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
