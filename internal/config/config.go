// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Quoting   QuotingConfig   `mapstructure:"quoting"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Pairs     []PairConfig    `mapstructure:"pairs"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// QuotingConfig holds quote aggregation and streaming settings.
type QuotingConfig struct {
	ProviderTimeout      time.Duration `mapstructure:"provider_timeout"`
	RefreshInterval      time.Duration `mapstructure:"refresh_interval"`
	SafetyBuffer         time.Duration `mapstructure:"safety_buffer"`
	MinClientValidity    time.Duration `mapstructure:"min_client_validity"`
	ImprovementThreshold float64       `mapstructure:"improvement_threshold_bps"`
	AutoRefresh          bool          `mapstructure:"auto_refresh"`
}

// ImprovementThresholdBps returns the switch threshold as decimal basis points.
func (c *QuotingConfig) ImprovementThresholdBps() decimal.Decimal {
	return decimal.NewFromFloat(c.ImprovementThreshold)
}

// ProvidersConfig holds liquidity provider settings.
type ProvidersConfig struct {
	Mock   []MockProviderConfig   `mapstructure:"mock"`
	Remote []RemoteProviderConfig `mapstructure:"remote"`
}

// MockProviderConfig configures a simulated liquidity provider. When
// SineAmplitude is non-zero the provider's mid price oscillates; otherwise
// it jitters randomly around BasePrice.
type MockProviderConfig struct {
	Name          string        `mapstructure:"name"`
	BasePrice     float64       `mapstructure:"base_price"`
	SpreadBps     float64       `mapstructure:"spread_bps"`
	JitterBps     float64       `mapstructure:"jitter_bps"`
	LatencyMin    time.Duration `mapstructure:"latency_min"`
	LatencyMax    time.Duration `mapstructure:"latency_max"`
	FailureRate   float64       `mapstructure:"failure_rate"`
	ValidFor      time.Duration `mapstructure:"valid_for"`
	SineAmplitude float64       `mapstructure:"sine_amplitude"`
	SineFrequency float64       `mapstructure:"sine_frequency"` // Hz
	SinePhase     float64       `mapstructure:"sine_phase"`     // radians
	TrendPerSec   float64       `mapstructure:"trend_per_sec"`
	CommissionBps float64       `mapstructure:"commission_bps"`
}

// RemoteProviderConfig configures a WebSocket RFQ provider.
type RemoteProviderConfig struct {
	Name              string        `mapstructure:"name"`
	URL               string        `mapstructure:"url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
}

// PairConfig holds per-pair trading parameters.
type PairConfig struct {
	Symbol        string  `mapstructure:"symbol"`
	Base          string  `mapstructure:"base"`
	Quote         string  `mapstructure:"quote"`
	MarkupBps     float64 `mapstructure:"markup_bps"`
	BaseDecimals  int32   `mapstructure:"base_decimals"`
	QuoteDecimals int32   `mapstructure:"quote_decimals"`
	MinAmount     float64 `mapstructure:"min_amount"`
	ProfitAsset   string  `mapstructure:"profit_asset"` // "base" or "quote"
}

// MarkupBpsDecimal returns the markup as decimal basis points.
func (c *PairConfig) MarkupBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MarkupBps)
}

// MinAmountDecimal returns the pair minimum as decimal.
func (c *PairConfig) MinAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinAmount)
}

// ExecutionConfig holds execution and hedging settings.
type ExecutionConfig struct {
	HedgeEnabled     bool          `mapstructure:"hedge_enabled"`
	HedgeTimeout     time.Duration `mapstructure:"hedge_timeout"`
	CommissionBps    float64       `mapstructure:"commission_bps"`
	SlippageBps      float64       `mapstructure:"slippage_bps"`
	RecordExecutions bool          `mapstructure:"record_executions"`
}

// CommissionBpsDecimal returns the exchange commission as decimal basis points.
func (c *ExecutionConfig) CommissionBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.CommissionBps)
}

// SlippageBpsDecimal returns the simulated slippage as decimal basis points.
func (c *ExecutionConfig) SlippageBpsDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippageBps)
}

// DatabaseConfig holds PostgreSQL connection settings for the execution store.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	StatementTimout time.Duration `mapstructure:"statement_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("RFQ")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "RFQ_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "RFQ_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "RFQ_LOG_LEVEL", "LOG_LEVEL")

	// Quoting
	v.BindEnv("quoting.provider_timeout", "RFQ_PROVIDER_TIMEOUT")
	v.BindEnv("quoting.refresh_interval", "RFQ_REFRESH_INTERVAL")
	v.BindEnv("quoting.safety_buffer", "RFQ_SAFETY_BUFFER")
	v.BindEnv("quoting.improvement_threshold_bps", "RFQ_IMPROVEMENT_THRESHOLD_BPS")

	// Execution
	v.BindEnv("execution.hedge_enabled", "RFQ_HEDGE_ENABLED")
	v.BindEnv("execution.commission_bps", "RFQ_COMMISSION_BPS")
	v.BindEnv("execution.record_executions", "RFQ_RECORD_EXECUTIONS")

	// Database
	v.BindEnv("database.url", "RFQ_DATABASE_URL", "DATABASE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "RFQ_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "RFQ_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "RFQ_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "rfq-aggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Quoting defaults
	v.SetDefault("quoting.provider_timeout", "2s")
	v.SetDefault("quoting.refresh_interval", "1s")
	v.SetDefault("quoting.safety_buffer", "2s")
	v.SetDefault("quoting.min_client_validity", "3s")
	v.SetDefault("quoting.improvement_threshold_bps", 1.0)
	v.SetDefault("quoting.auto_refresh", true)

	// Pair defaults
	v.SetDefault("pairs", []map[string]any{
		{
			"symbol": "BTCUSDT", "base": "BTC", "quote": "USDT",
			"markup_bps": 10.0, "base_decimals": 5, "quote_decimals": 2,
			"min_amount": 0.0001, "profit_asset": "quote",
		},
		{
			"symbol": "ETHUSDT", "base": "ETH", "quote": "USDT",
			"markup_bps": 10.0, "base_decimals": 4, "quote_decimals": 2,
			"min_amount": 0.001, "profit_asset": "quote",
		},
		{
			"symbol": "USDCUSDT", "base": "USDC", "quote": "USDT",
			"markup_bps": 3.0, "base_decimals": 2, "quote_decimals": 4,
			"min_amount": 10, "profit_asset": "quote",
		},
	})

	// Provider defaults, three sine providers phased a quarter wave apart
	// so the best price rotates between them.
	v.SetDefault("providers.mock", []map[string]any{
		{
			"name": "LP-1", "base_price": 100000.0, "spread_bps": 5.0,
			"latency_min": "100ms", "latency_max": "300ms", "valid_for": "10s",
			"sine_amplitude": 100.0, "sine_frequency": 0.05, "sine_phase": 0.0,
			"trend_per_sec": -10.0, "commission_bps": 10.0,
		},
		{
			"name": "LP-2", "base_price": 100000.0, "spread_bps": 5.0,
			"latency_min": "100ms", "latency_max": "300ms", "valid_for": "10s",
			"sine_amplitude": 100.0, "sine_frequency": 0.05, "sine_phase": 1.5707963,
			"trend_per_sec": -10.0, "commission_bps": 10.0,
		},
		{
			"name": "LP-3", "base_price": 100000.0, "spread_bps": 5.0,
			"latency_min": "100ms", "latency_max": "300ms", "valid_for": "10s",
			"sine_amplitude": 100.0, "sine_frequency": 0.05, "sine_phase": 3.1415927,
			"trend_per_sec": -10.0, "commission_bps": 10.0,
		},
	})

	// Execution defaults
	v.SetDefault("execution.hedge_enabled", true)
	v.SetDefault("execution.hedge_timeout", "5s")
	v.SetDefault("execution.commission_bps", 10.0)
	v.SetDefault("execution.slippage_bps", 0.0)
	v.SetDefault("execution.record_executions", true)

	// Database defaults
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.statement_timeout", "3s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "rfq-aggregator")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Quoting.ProviderTimeout <= 0 {
		return fmt.Errorf("quoting.provider_timeout must be positive")
	}
	if c.Quoting.RefreshInterval <= 0 {
		return fmt.Errorf("quoting.refresh_interval must be positive")
	}
	if c.Quoting.SafetyBuffer < 0 {
		return fmt.Errorf("quoting.safety_buffer cannot be negative")
	}
	if c.Quoting.ImprovementThreshold < 0 {
		return fmt.Errorf("quoting.improvement_threshold_bps cannot be negative")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("pairs cannot be empty")
	}
	for i, p := range c.Pairs {
		if p.Symbol == "" || p.Base == "" || p.Quote == "" {
			return fmt.Errorf("pairs[%d]: symbol, base and quote are required", i)
		}
		if p.MarkupBps < 0 {
			return fmt.Errorf("pairs[%d]: markup_bps cannot be negative", i)
		}
		if p.ProfitAsset != "base" && p.ProfitAsset != "quote" {
			return fmt.Errorf("pairs[%d]: profit_asset must be \"base\" or \"quote\"", i)
		}
	}
	for i, m := range c.Providers.Mock {
		if m.Name == "" {
			return fmt.Errorf("providers.mock[%d]: name is required", i)
		}
		if m.FailureRate < 0 || m.FailureRate > 1 {
			return fmt.Errorf("providers.mock[%d]: failure_rate must be in [0, 1]", i)
		}
	}
	for i, r := range c.Providers.Remote {
		if r.Name == "" {
			return fmt.Errorf("providers.remote[%d]: name is required", i)
		}
		if r.URL == "" {
			return fmt.Errorf("providers.remote[%d]: url is required", i)
		}
	}
	return nil
}
