// Package config provides configuration types and loading for the REST
// server.
//
// This package defines the server configuration model, YAML loading with
// environment variable substitution, validation, and file watching for
// hot reload of the service description.
//
// # Configuration Loading
//
// Load configuration from a YAML file:
//
//	cfg, err := config.LoadConfig("avarest.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Values may reference the environment as ${VAR} or ${VAR:-default}.
// A literal dollar sign is written as $$.
//
// # File Watching
//
// Reload when the service description changes:
//
//	watcher, err := config.NewWatcher([]string{cfg.Service.Document},
//	    func(changed []string) error {
//	        return reload(changed)
//	    },
//	    config.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer watcher.Stop()
//
//	watcher.Start(ctx)
package config
