package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ERP_DATABASE_PASSWORD
const EnvPrefix = "ERP"

// Config holds all application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// IsProduction reports whether the stricter production checks apply
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// RedisConfig points at the lock server. Without it apply runs are
// serialized in-process only.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// An empty origin list means no cross-origin requests are allowed
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. localhost:4317
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // bound values end up in spans
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	MetricsExportInterval time.Duration `mapstructure:"metrics_export_interval"`
}

// StorageConfig holds the S3-compatible bucket that raw import files are
// archived to
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
}

// MarketplaceConfig holds marketplace import and apply settings
type MarketplaceConfig struct {
	// UnknownChannelPolicy decides what happens to rows with an unknown
	// channel: "reject" fails the row, "other" maps it to OTHER
	UnknownChannelPolicy string `mapstructure:"unknown_channel_policy"`
	// MaxImportErrors caps the row errors reported per import
	MaxImportErrors int `mapstructure:"max_import_errors"`
	// ApplyLockTTL bounds how long one apply run may hold its batch lock
	ApplyLockTTL time.Duration `mapstructure:"apply_lock_ttl"`
	// MaxUploadSize caps the size of an uploaded CSV in bytes
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
}

// defaults lists every key viper should know about. Keys without a
// meaningful default are still listed so AutomaticEnv picks them up
// during Unmarshal.
var defaults = map[string]any{
	"app.name": "resale-erp",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "resale",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        30 * time.Second,
	"http.write_timeout":       60 * time.Second,
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       int64(12 << 20), // leaves room for multipart framing around a CSV
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":     []string{},

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "resale-erp",
	"telemetry.insecure":                false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_export_interval": time.Minute,

	"storage.enabled":            false,
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "resale-imports",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,

	"marketplace.unknown_channel_policy": "reject",
	"marketplace.max_import_errors":      500,
	"marketplace.apply_lock_ttl":         5 * time.Minute,
	"marketplace.max_upload_size":        int64(10 << 20),
}

// Load reads configuration with this precedence, highest first:
//  1. ERP_ environment variables (ERP_DATABASE_PASSWORD sets database.password)
//  2. config.toml in the working directory or /app
//  3. built-in defaults
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs every section check and reports all failures together
func (c *Config) Validate() error {
	prod := c.App.IsProduction()
	return errors.Join(
		c.Database.validate(prod),
		c.HTTP.validate(prod),
		c.Telemetry.validate(prod),
		c.Storage.validate(),
		c.Marketplace.validate(c.HTTP.MaxBodySize),
	)
}

func (d *DatabaseConfig) validate(prod bool) error {
	var errs []error
	if d.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("database.max_open_conns must be positive"))
	}
	if d.MaxIdleConns < 0 {
		errs = append(errs, errors.New("database.max_idle_conns cannot be negative"))
	} else if d.MaxOpenConns > 0 && d.MaxIdleConns > d.MaxOpenConns {
		errs = append(errs, fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			d.MaxIdleConns, d.MaxOpenConns))
	}
	if prod {
		if d.Password == "" {
			errs = append(errs, errors.New("database.password is required in production"))
		}
		if d.SSLMode == "disable" {
			errs = append(errs, errors.New("database.sslmode cannot be 'disable' in production"))
		}
	}
	return errors.Join(errs...)
}

func (h *HTTPConfig) validate(prod bool) error {
	if prod && slices.Contains(h.CORSAllowOrigins, "*") {
		return errors.New("http.cors_allow_origins cannot be '*' in production")
	}
	return nil
}

func (t *TelemetryConfig) validate(prod bool) error {
	var errs []error
	if t.SamplingRatio < 0 || t.SamplingRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", t.SamplingRatio))
	}
	if prod && t.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production"))
	}
	return errors.Join(errs...)
}

func (s *StorageConfig) validate() error {
	if s.Enabled && (s.AccessKey == "" || s.SecretKey == "") {
		return errors.New("storage.access_key and storage.secret_key are required when storage is enabled")
	}
	return nil
}

func (m *MarketplaceConfig) validate(maxBodySize int64) error {
	var errs []error
	switch m.UnknownChannelPolicy {
	case "reject", "other":
	default:
		errs = append(errs, fmt.Errorf("marketplace.unknown_channel_policy must be 'reject' or 'other', got %q", m.UnknownChannelPolicy))
	}
	if m.MaxImportErrors < 0 {
		errs = append(errs, errors.New("marketplace.max_import_errors cannot be negative"))
	}
	if m.ApplyLockTTL < time.Second {
		errs = append(errs, errors.New("marketplace.apply_lock_ttl must be at least 1s"))
	}
	if m.MaxUploadSize < 0 {
		errs = append(errs, errors.New("marketplace.max_upload_size cannot be negative"))
	} else if maxBodySize > 0 && m.MaxUploadSize > maxBodySize {
		errs = append(errs, fmt.Errorf("marketplace.max_upload_size (%d) cannot exceed http.max_body_size (%d)",
			m.MaxUploadSize, maxBodySize))
	}
	return errors.Join(errs...)
}

// DSN returns the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
