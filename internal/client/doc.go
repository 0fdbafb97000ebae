// Package client calls services described by service.Method descriptors.
//
// Request URIs are produced by service.BuildURI, request entities are
// encoded and response entities decoded with a conversion.Service, so a
// client and a server sharing one service description and converter set
// agree on the wire format. Failure responses are decoded into *StatusError.
package client
