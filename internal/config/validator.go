package config

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avarest/internal/conversion"
	"github.com/vyrodovalexey/avarest/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Is makes every ValidationErrors match util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates server configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a server configuration.
func ValidateConfig(cfg *ServerConfig) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *ServerConfig) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateService(&cfg.Service)
	v.validateNegotiation(&cfg.Negotiation)
	v.validateRateLimit(cfg.RateLimit)
	v.validateObservability(&cfg.Observability)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerSettings) {
	if err := util.ValidatePort(s.Port); err != nil {
		v.addError("server.port", err.Error())
	}
	if err := util.ValidateBindAddress(s.Bind); err != nil {
		v.addError("server.bind", err.Error())
	}

	timeouts := []struct {
		path  string
		value Duration
	}{
		{"server.readTimeout", s.ReadTimeout},
		{"server.writeTimeout", s.WriteTimeout},
		{"server.idleTimeout", s.IdleTimeout},
		{"server.shutdownTimeout", s.ShutdownTimeout},
		{"server.handlerTimeout", s.HandlerTimeout},
	}
	for _, t := range timeouts {
		if err := util.ValidateDuration(t.value.Duration()); err != nil {
			v.addError(t.path, err.Error())
		}
	}
}

func (v *Validator) validateService(s *ServiceConfig) {
	if err := util.ValidateNonEmpty(s.Document, "service document"); err != nil {
		v.addError("service.document", err.Error())
	}
}

func (v *Validator) validateNegotiation(n *NegotiationConfig) {
	if n.DefaultCharset == "" {
		return
	}
	if _, err := conversion.LookupCharset(n.DefaultCharset); err != nil {
		v.addError("negotiation.defaultCharset", err.Error())
	}
}

func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	if rl == nil || !rl.Enabled {
		return
	}
	if rl.RequestsPerSecond <= 0 {
		v.addError("rateLimit.requestsPerSecond", "requestsPerSecond must be positive")
	}
	if rl.Burst <= 0 {
		v.addError("rateLimit.burst", "burst must be positive")
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	validLevels := map[string]bool{
		"":      true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(obs.Logging.Level)] {
		v.addError("observability.logging.level", fmt.Sprintf("invalid log level: %s", obs.Logging.Level))
	}

	validFormats := map[string]bool{
		"":        true,
		"json":    true,
		"console": true,
	}
	if !validFormats[strings.ToLower(obs.Logging.Format)] {
		v.addError("observability.logging.format", fmt.Sprintf("invalid log format: %s", obs.Logging.Format))
	}

	if m := obs.Metrics; m != nil && m.Enabled && !strings.HasPrefix(m.Path, "/") {
		v.addError("observability.metrics.path", "metrics path must start with '/'")
	}

	if t := obs.Tracing; t != nil && t.Enabled {
		if t.SamplingRate < 0 || t.SamplingRate > 1 {
			v.addError("observability.tracing.samplingRate",
				fmt.Sprintf("sampling rate must be between 0 and 1, got: %v", t.SamplingRate))
		}
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
