// Package router provides REST request routing for the server.
//
// Methods from a service description are registered into buckets keyed by
// the number of path segments they consume, each bucket ordered so that
// literal segments are tried before variables and variables before regex
// captures. Dispatch decodes the raw request target, narrows the candidates
// to one bucket and returns the first route that matches.
//
// # Features
//
//   - Literal, variable, matrix, query and regex signature elements
//   - Trailing regex routes visible at every path depth they can serve
//   - HEAD routed as GET, OPTIONS accepted by every route
//   - Distinct decoding, not found and method not allowed errors
//   - Lock-free dispatch over an immutable registry snapshot
//   - Handler resolution by target name at registration time
//
// # Usage
//
// Register methods while stopped, then start dispatching:
//
//	r := router.New(router.WithResolver(handlers))
//	if err := r.RegisterAll(service.Methods(groups)); err != nil {
//	    log.Fatal(err)
//	}
//	r.Start()
//
//	match, err := r.DispatchTarget("GET", "/db/orders/db_all;from=10?name=x")
//	if err == nil {
//	    // use match.Route and match.Arguments
//	}
package router
