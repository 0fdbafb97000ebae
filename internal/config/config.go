package config

import (
	"net"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultName            = "avarest"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsPath     = "/metrics"
	DefaultRequestsPerSec  = 100
	DefaultBurst           = 200
	DefaultDebounceDelay   = 100 * time.Millisecond
)

// ServerConfig is the root configuration of the REST server.
type ServerConfig struct {
	Server        ServerSettings      `yaml:"server" json:"server"`
	Service       ServiceConfig       `yaml:"service" json:"service"`
	Negotiation   NegotiationConfig   `yaml:"negotiation,omitempty" json:"negotiation,omitempty"`
	RateLimit     *RateLimitConfig    `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	Observability ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Name            string   `yaml:"name,omitempty" json:"name,omitempty"`
	Bind            string   `yaml:"bind,omitempty" json:"bind,omitempty"`
	Port            int      `yaml:"port" json:"port"`
	ReadTimeout     Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout    Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout     Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`

	// HandlerTimeout bounds the context of each REST handler. Zero disables it.
	HandlerTimeout Duration `yaml:"handlerTimeout,omitempty" json:"handlerTimeout,omitempty"`
}

// Address returns the host:port the listener binds to.
func (s *ServerSettings) Address() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// ServiceConfig points at the service description served by the router.
type ServiceConfig struct {
	// Document is the path of the YAML service description.
	Document string `yaml:"document" json:"document"`
	// Watch reloads the router when the document changes.
	Watch bool `yaml:"watch,omitempty" json:"watch,omitempty"`
}

// NegotiationConfig tunes content negotiation.
type NegotiationConfig struct {
	SortByQuality  bool   `yaml:"sortByQuality,omitempty" json:"sortByQuality,omitempty"`
	DefaultCharset string `yaml:"defaultCharset,omitempty" json:"defaultCharset,omitempty"`
}

// RateLimitConfig represents rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	RequestsPerSecond int  `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int  `yaml:"burst" json:"burst"`
	PerClient         bool `yaml:"perClient,omitempty" json:"perClient,omitempty"`
}

// ObservabilityConfig represents observability configuration.
type ObservabilityConfig struct {
	Logging LoggingConfig  `yaml:"logging,omitempty" json:"logging,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig represents tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
}

// DefaultConfig returns a ServerConfig with default values.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Name:            DefaultName,
			Port:            DefaultPort,
			ReadTimeout:     Duration(DefaultReadTimeout),
			WriteTimeout:    Duration(DefaultWriteTimeout),
			IdleTimeout:     Duration(DefaultIdleTimeout),
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Negotiation: NegotiationConfig{
			DefaultCharset: "utf-8",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			Metrics: &MetricsConfig{
				Enabled: true,
				Path:    DefaultMetricsPath,
			},
		},
	}
}

// ApplyDefaults fills unset fields with their default values.
func (c *ServerConfig) ApplyDefaults() {
	def := DefaultConfig()

	if c.Server.Name == "" {
		c.Server.Name = def.Server.Name
	}
	c.Server.ReadTimeout = c.Server.ReadTimeout.OrDefault(DefaultReadTimeout)
	c.Server.WriteTimeout = c.Server.WriteTimeout.OrDefault(DefaultWriteTimeout)
	c.Server.IdleTimeout = c.Server.IdleTimeout.OrDefault(DefaultIdleTimeout)
	c.Server.ShutdownTimeout = c.Server.ShutdownTimeout.OrDefault(DefaultShutdownTimeout)

	if c.RateLimit != nil && c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond == 0 {
			c.RateLimit.RequestsPerSecond = DefaultRequestsPerSec
		}
		if c.RateLimit.Burst == 0 {
			c.RateLimit.Burst = DefaultBurst
		}
	}

	logging := &c.Observability.Logging
	if logging.Level == "" {
		logging.Level = def.Observability.Logging.Level
	}
	if logging.Format == "" {
		logging.Format = def.Observability.Logging.Format
	}
	if logging.Output == "" {
		logging.Output = def.Observability.Logging.Output
	}

	if c.Observability.Metrics == nil {
		c.Observability.Metrics = def.Observability.Metrics
	} else if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = DefaultMetricsPath
	}

	if t := c.Observability.Tracing; t != nil && t.Enabled {
		if t.ServiceName == "" {
			t.ServiceName = c.Server.Name
		}
		if t.SamplingRate == 0 {
			t.SamplingRate = 1.0
		}
	}
}

// MetricsEnabled reports whether the metrics endpoint is served.
func (c *ServerConfig) MetricsEnabled() bool {
	return c.Observability.Metrics != nil && c.Observability.Metrics.Enabled
}

// TracingEnabled reports whether spans are exported.
func (c *ServerConfig) TracingEnabled() bool {
	return c.Observability.Tracing != nil && c.Observability.Tracing.Enabled
}

// RateLimitEnabled reports whether the rate limiter is installed.
func (c *ServerConfig) RateLimitEnabled() bool {
	return c.RateLimit != nil && c.RateLimit.Enabled
}
