package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SCA approach kinds accepted in configuration.
const (
	ScaApproachRedirect  = "REDIRECT"
	ScaApproachDecoupled = "DECOUPLED"
	ScaApproachEmbedded  = "EMBEDDED"
)

// Idempotency cache backends.
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Config holds all configuration for the application.
// It is loaded once at startup and handed to constructors; it must not be mutated afterwards.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabasesConfig   `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	CORS        CORSConfig        `mapstructure:"cors"`
	SCA         SCAConfig         `mapstructure:"sca"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Consent     ConsentConfig     `mapstructure:"consent"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// DatabasesConfig holds all database configurations
type DatabasesConfig struct {
	Consent DatabaseConfig `mapstructure:"consent"`
}

// DatabaseConfig holds individual database configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Hostname        string        `mapstructure:"hostname"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SCAConfig holds the supported SCA approaches and methods.
type SCAConfig struct {
	Required            bool                `mapstructure:"required"`
	SupportedApproaches []ScaApproachConfig `mapstructure:"supported_approaches"`
	SupportedMethods    []ScaMethodConfig   `mapstructure:"supported_methods"`

	// OAuthMetadataEndpoint is advertised as the scaOAuth link for REDIRECT flows.
	OAuthMetadataEndpoint string `mapstructure:"oauth_metadata_endpoint"`
}

// ScaApproachConfig is one configured SCA approach.
type ScaApproachConfig struct {
	Name    string `mapstructure:"name"`
	Default bool   `mapstructure:"default"`
}

// ScaMethodConfig is one configured SCA method.
type ScaMethodConfig struct {
	Type           string `mapstructure:"type"`
	Identifier     string `mapstructure:"identifier"`
	Version        string `mapstructure:"version"`
	Name           string `mapstructure:"name"`
	MappedApproach string `mapstructure:"mapped_approach"`
	Description    string `mapstructure:"description"`
	Default        bool   `mapstructure:"default"`
}

// GetSupportedScaApproaches returns the configured approaches.
func (s *SCAConfig) GetSupportedScaApproaches() []ScaApproachConfig {
	return s.SupportedApproaches
}

// GetSupportedScaMethods returns the configured methods.
func (s *SCAConfig) GetSupportedScaMethods() []ScaMethodConfig {
	return s.SupportedMethods
}

// IdempotencyConfig holds payment submission idempotency settings.
type IdempotencyConfig struct {
	Enabled                  bool                   `mapstructure:"enabled"`
	AllowedTimeDurationHours int                    `mapstructure:"allowed_time_duration_hours"`
	HeaderName               string                 `mapstructure:"header_name"`
	Cache                    IdempotencyCacheConfig `mapstructure:"cache"`
}

// IdempotencyCacheConfig selects and tunes the idempotency cache backend.
type IdempotencyCacheConfig struct {
	Type      string        `mapstructure:"type"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Retention time.Duration `mapstructure:"retention"`
}

// GetIdempotencyAllowedDurationHours returns the replay window in whole hours.
func (i *IdempotencyConfig) GetIdempotencyAllowedDurationHours() int {
	return i.AllowedTimeDurationHours
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ConsentConfig holds consent lifecycle settings.
type ConsentConfig struct {
	MultipleRecurringConsentEnabled bool `mapstructure:"multiple_recurring_consent_enabled"`
}

// MetricsConfig holds prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deployment")
		v.SetConfigType("yaml")
		v.AddConfigPath("./repository/conf")
		v.AddConfigPath("./cmd/server/repository/conf")
		v.AddConfigPath("../repository/conf")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("CONSENT_MGT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.hostname", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("database.consent.type", "mysql")
	v.SetDefault("database.consent.max_open_conns", 25)
	v.SetDefault("database.consent.max_idle_conns", 5)
	v.SetDefault("database.consent.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("sca.required", true)
	v.SetDefault("idempotency.header_name", "X-Request-ID")
	v.SetDefault("idempotency.cache.type", CacheTypeMemory)
	v.SetDefault("idempotency.cache.key_prefix", "idempotency")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Database.Consent.Type {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", config.Database.Consent.Type)
	}
	if config.Database.Consent.Hostname == "" {
		return fmt.Errorf("database hostname is required")
	}
	if config.Database.Consent.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if err := validateSCA(&config.SCA); err != nil {
		return err
	}

	if config.Idempotency.Enabled {
		if config.Idempotency.AllowedTimeDurationHours <= 0 {
			return fmt.Errorf("idempotency allowed time duration must be positive when idempotency is enabled")
		}
		if config.Idempotency.HeaderName == "" {
			return fmt.Errorf("idempotency header name is required")
		}
	}

	switch config.Idempotency.Cache.Type {
	case CacheTypeMemory:
	case CacheTypeRedis:
		if config.Redis.URL == "" {
			return fmt.Errorf("redis url is required for the redis idempotency cache")
		}
	default:
		return fmt.Errorf("unsupported idempotency cache type: %s", config.Idempotency.Cache.Type)
	}

	return nil
}

func validateSCA(sca *SCAConfig) error {
	known := make(map[string]bool, len(sca.SupportedApproaches))
	defaults := 0
	for _, approach := range sca.SupportedApproaches {
		switch approach.Name {
		case ScaApproachRedirect, ScaApproachDecoupled, ScaApproachEmbedded:
		default:
			return fmt.Errorf("unsupported SCA approach: %s", approach.Name)
		}
		known[approach.Name] = true
		if approach.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("at most one default SCA approach may be configured")
	}

	defaults = 0
	for _, method := range sca.SupportedMethods {
		if method.Identifier == "" {
			return fmt.Errorf("SCA method identifier is required")
		}
		if !known[method.MappedApproach] {
			return fmt.Errorf("SCA method %s maps to unconfigured approach %q", method.Identifier, method.MappedApproach)
		}
		if method.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("at most one default SCA method may be configured")
	}
	return nil
}

// GetDSN returns the driver specific connection string
func (d *DatabaseConfig) GetDSN() string {
	if d.Type == "postgres" {
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     fmt.Sprintf("%s:%d", d.Hostname, d.Port),
			Path:     d.Database,
			RawQuery: "sslmode=" + sslMode,
		}
		return u.String()
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true&clientFoundRows=true",
		d.User,
		d.Password,
		d.Hostname,
		d.Port,
		d.Database,
	)
}

// GetServerAddress returns the server address in host:port format
func (s *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}
