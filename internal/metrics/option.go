package metrics

type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "customOtelCollector"
)

// Config configures the metric provider.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg describes a single metrics export destination.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// NewOtelCollectorConfig builds a ProviderCfg for an OTLP collector endpoint.
func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

type OptionFn func(config Config) Config

func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)

		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName

		return config
	}
}

type PromServerConfig struct {
	port string
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
