package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable (CLAIMS_SERVER_PORT, ...).
const EnvPrefix = "CLAIMS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Scoring   ScoringConfig   `yaml:"scoring" envconfig:"SCORING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/claimpulse.log"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"claimpulse"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED" default:"false"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// SourcesConfig locates every tabular export. An empty URI disables the
// source. URIs are http(s) URLs, file:// URLs or plain paths.
type SourcesConfig struct {
	Exposure        string        `yaml:"exposure" envconfig:"EXPOSURE" validate:"omitempty,source_uri"`
	Risk            string        `yaml:"risk" envconfig:"RISK" validate:"omitempty,source_uri"`
	Checks          string        `yaml:"checks" envconfig:"CHECKS" validate:"omitempty,source_uri"`
	Intervention    string        `yaml:"intervention" envconfig:"INTERVENTION" validate:"omitempty,source_uri"`
	LossDevelopment string        `yaml:"loss_development" envconfig:"LOSS_DEVELOPMENT" validate:"omitempty,source_uri"`
	Weekly          string        `yaml:"weekly" envconfig:"WEEKLY" validate:"omitempty,source_uri"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxBytes        int64         `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"52428800" validate:"gt=0"`
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" default:"0s" validate:"gte=0"`
}

// ScoringConfig carries the thresholds the decision and intervention engines
// read from configuration.
type ScoringConfig struct {
	DecisionThreshold     float64  `yaml:"decision_threshold" envconfig:"DECISION_THRESHOLD" default:"15000" validate:"gt=0"`
	CoveredPolicyType     string   `yaml:"covered_policy_type" envconfig:"COVERED_POLICY_TYPE" default:"BI" validate:"required"`
	PilotJurisdiction     string   `yaml:"pilot_jurisdiction" envconfig:"PILOT_JURISDICTION" default:"TX" validate:"omitempty,len=2"`
	HighRiskJurisdictions []string `yaml:"high_risk_jurisdictions" envconfig:"HIGH_RISK_JURISDICTIONS" default:"CA,FL,NV,GA,NY" validate:"dive,len=2"`
	DefaultPolicyLimit    float64  `yaml:"default_policy_limit" envconfig:"DEFAULT_POLICY_LIMIT" default:"25000" validate:"gt=0"`
	MinRiskFlags          int      `yaml:"min_risk_flags" envconfig:"MIN_RISK_FLAGS" default:"3" validate:"gte=0"`
	AlertWindowDays       int      `yaml:"alert_window_days" envconfig:"ALERT_WINDOW_DAYS" default:"180" validate:"gt=0"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// URIs returns the configured source URIs keyed by source name. Disabled
// sources are omitted.
func (s SourcesConfig) URIs() map[string]string {
	all := map[string]string{
		"exposure":         s.Exposure,
		"risk":             s.Risk,
		"checks":           s.Checks,
		"intervention":     s.Intervention,
		"loss_development": s.LossDevelopment,
		"weekly":           s.Weekly,
	}
	out := make(map[string]string, len(all))
	for name, uri := range all {
		if strings.TrimSpace(uri) != "" {
			out[name] = uri
		}
	}
	return out
}

// Load loads configuration from environment variables and the first config
// file found in the usual locations. CLAIMS_CONFIG_FILE overrides the search.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile loads configuration from environment variables and, when path is
// non-empty, from the YAML file at path. Environment variables take precedence.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path != "" {
		fileConfig, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// fromFile overwrites dst with a non-zero file value unless the matching
// environment variable was set explicitly.
func fromFile[T comparable](dst *T, file T, envKey string) {
	var zero T
	if file == zero {
		return
	}
	if _, set := os.LookupEnv(EnvPrefix + "_" + envKey); set {
		return
	}
	*dst = file
}

func sliceFromFile(dst *[]string, file []string, envKey string) {
	if len(file) == 0 {
		return
	}
	if _, set := os.LookupEnv(EnvPrefix + "_" + envKey); set {
		return
	}
	*dst = append([]string(nil), file...)
}

// mergeConfigs merges file config with env config (env takes precedence).
// Boolean switches are env-only since a false in the file is indistinguishable
// from absence.
func mergeConfigs(fileConfig, envConfig Config) Config {
	fs, es := fileConfig.Server, &envConfig.Server
	fromFile(&es.Port, fs.Port, "SERVER_PORT")
	fromFile(&es.ReadTimeout, fs.ReadTimeout, "SERVER_READ_TIMEOUT")
	fromFile(&es.WriteTimeout, fs.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	fromFile(&es.IdleTimeout, fs.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	fromFile(&es.MaxHeaderBytes, fs.MaxHeaderBytes, "SERVER_MAX_HEADER_BYTES")
	fromFile(&es.ShutdownTimeout, fs.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	fromFile(&es.RequestTimeout, fs.RequestTimeout, "SERVER_REQUEST_TIMEOUT")

	sliceFromFile(&envConfig.Security.AllowedOrigins, fileConfig.Security.AllowedOrigins, "SECURITY_ALLOWED_ORIGINS")
	fromFile(&envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, "SECURITY_RATE_LIMIT_RPS")
	fromFile(&envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	fl, el := fileConfig.Logging, &envConfig.Logging
	fromFile(&el.Level, fl.Level, "LOGGING_LEVEL")
	fromFile(&el.Output, fl.Output, "LOGGING_OUTPUT")
	fromFile(&el.FilePath, fl.FilePath, "LOGGING_FILE_PATH")

	fromFile(&envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName, "TELEMETRY_SERVICE_NAME")

	src, dst := fileConfig.Sources, &envConfig.Sources
	fromFile(&dst.Exposure, src.Exposure, "SOURCES_EXPOSURE")
	fromFile(&dst.Risk, src.Risk, "SOURCES_RISK")
	fromFile(&dst.Checks, src.Checks, "SOURCES_CHECKS")
	fromFile(&dst.Intervention, src.Intervention, "SOURCES_INTERVENTION")
	fromFile(&dst.LossDevelopment, src.LossDevelopment, "SOURCES_LOSS_DEVELOPMENT")
	fromFile(&dst.Weekly, src.Weekly, "SOURCES_WEEKLY")
	fromFile(&dst.FetchTimeout, src.FetchTimeout, "SOURCES_FETCH_TIMEOUT")
	fromFile(&dst.MaxBytes, src.MaxBytes, "SOURCES_MAX_BYTES")
	fromFile(&dst.RefreshInterval, src.RefreshInterval, "SOURCES_REFRESH_INTERVAL")

	fsc, esc := fileConfig.Scoring, &envConfig.Scoring
	fromFile(&esc.DecisionThreshold, fsc.DecisionThreshold, "SCORING_DECISION_THRESHOLD")
	fromFile(&esc.CoveredPolicyType, fsc.CoveredPolicyType, "SCORING_COVERED_POLICY_TYPE")
	fromFile(&esc.PilotJurisdiction, fsc.PilotJurisdiction, "SCORING_PILOT_JURISDICTION")
	sliceFromFile(&esc.HighRiskJurisdictions, fsc.HighRiskJurisdictions, "SCORING_HIGH_RISK_JURISDICTIONS")
	fromFile(&esc.DefaultPolicyLimit, fsc.DefaultPolicyLimit, "SCORING_DEFAULT_POLICY_LIMIT")
	fromFile(&esc.MinRiskFlags, fsc.MinRiskFlags, "SCORING_MIN_RISK_FLAGS")
	fromFile(&esc.AlertWindowDays, fsc.AlertWindowDays, "SCORING_ALERT_WINDOW_DAYS")

	fw, ew := fileConfig.WebSocket, &envConfig.WebSocket
	fromFile(&ew.ReadBufferSize, fw.ReadBufferSize, "WEBSOCKET_READ_BUFFER_SIZE")
	fromFile(&ew.WriteBufferSize, fw.WriteBufferSize, "WEBSOCKET_WRITE_BUFFER_SIZE")
	fromFile(&ew.PingPeriod, fw.PingPeriod, "WEBSOCKET_PING_PERIOD")
	fromFile(&ew.PongWait, fw.PongWait, "WEBSOCKET_PONG_WAIT")

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	v := validator.New()
	if err := v.RegisterValidation("source_uri", isSourceURI); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return err
	}

	for i, j := range c.Scoring.HighRiskJurisdictions {
		c.Scoring.HighRiskJurisdictions[i] = strings.ToUpper(strings.TrimSpace(j))
	}
	c.Scoring.PilotJurisdiction = strings.ToUpper(c.Scoring.PilotJurisdiction)

	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket ping period %s must be shorter than pong wait %s",
			c.WebSocket.PingPeriod, c.WebSocket.PongWait)
	}
	return nil
}

// isSourceURI accepts http(s) and file URLs and bare filesystem paths.
func isSourceURI(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return false
	}
	if !strings.Contains(raw, "://") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/claimpulse.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			MetricsEnabled: true,
		},
		Sources: SourcesConfig{
			FetchTimeout: DefaultHTTPTimeout,
			MaxBytes:     50 << 20,
		},
		Scoring: ScoringConfig{
			DecisionThreshold:     15000,
			CoveredPolicyType:     "BI",
			PilotJurisdiction:     "TX",
			HighRiskJurisdictions: []string{"CA", "FL", "NV", "GA", "NY"},
			DefaultPolicyLimit:    25000,
			MinRiskFlags:          3,
			AlertWindowDays:       180,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
	}
}
