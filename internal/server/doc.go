// Package server exposes a service description over HTTP.
//
// The server is built on gin. Infrastructure endpoints (/health, /ready and
// the metrics path) are registered as gin routes; every other request falls
// through to the REST pipeline, which dispatches it through a router.Router,
// converts its arguments and entity, invokes the bound handler and encodes
// the result in the negotiated media type. Failures are rendered as Error
// entities in a representation the client accepts.
//
// The router is held behind an atomic pointer so a Reloader can install a
// freshly built router without interrupting in-flight requests.
package server
