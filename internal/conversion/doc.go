// Package conversion provides content negotiation and entity conversion for
// the REST server.
//
// A Service holds converters per entity type name in server preference
// order. Response negotiation walks the client's Accept ranges in order and
// picks the first supported media type compatible with one of them; request
// negotiation matches the declared Content-Type against the entity's
// converters. Failures are reported as *util.NegotiationError, which maps to
// 406 Not Acceptable or 415 Unsupported Media Type.
//
// Built-in converters cover text/plain scalars with charset transcoding,
// JSON, YAML, MessagePack, TOML and protobuf well-known types:
//
//	svc := conversion.NewDefaultService(conversion.WithDefaultCharset("utf-8"))
//	mt, body, err := svc.WriteEntity(
//	    conversion.ParseMediaTypes(r.Header.Get("Accept")),
//	    service.EntityType{Name: "Map"},
//	    map[string]any{"id": 1},
//	)
//
// ConvertArguments turns the raw strings bound by the router into typed
// values according to the method signature.
package conversion
