// Package health reports liveness and readiness of the REST server.
//
// A Checker aggregates named readiness checks. Health always reports
// healthy with the version and uptime; Readiness runs every registered
// check and reports the worst status:
//
//	checker := health.NewChecker(version)
//	checker.RegisterCheck("router", func() health.Check {
//	    return health.Check{Status: health.StatusHealthy}
//	})
//
//	engine.GET("/health", checker.HealthHandler())
//	engine.GET("/ready", checker.ReadinessHandler())
package health
