// Package main is the entry point for the avarest REST server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/avarest/internal/config"
	"github.com/vyrodovalexey/avarest/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	document    string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		exitFunc(1)
		return
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting avarest",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.String("document", cfg.Service.Document),
	)

	app := initApplication(cfg, newSampleHandlers(), logger)
	runServer(app, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("AVAREST_CONFIG_PATH", "configs/avarest.yaml"),
		"Path to configuration file")
	document := flag.String("document", getEnvOrDefault("AVAREST_SERVICE_DOCUMENT", ""),
		"Path to the service description (overrides service.document)")
	logLevel := flag.String("log-level", getEnvOrDefault("AVAREST_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("AVAREST_LOG_FORMAT", ""),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		document:    *document,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("avarest version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads the configuration file and applies command line
// overrides before validation.
func loadConfig(flags cliFlags) (*config.ServerConfig, error) {
	cfg, err := config.NewLoader().Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.document != "" {
		cfg.Service.Document = flags.document
	}
	if flags.logLevel != "" {
		cfg.Observability.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Observability.Logging.Format = flags.logFormat
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger initializes the logger from the logging configuration.
func initLogger(cfg *config.ServerConfig) observability.Logger {
	logging := cfg.Observability.Logging
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  logging.Level,
		Format: logging.Format,
		Output: logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		exitFunc(1)
		return observability.NopLogger()
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// fatalWithSync logs at error level, flushes the logger and exits.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
