package sparql

import "errors"

// ErrInvalidEndpoint indicates the configured SPARQL endpoint URL could not be used.
var ErrInvalidEndpoint = errors.New("invalid SPARQL endpoint")

// ErrRequestFailed indicates the endpoint could not be reached or answered with a non-2xx status.
var ErrRequestFailed = errors.New("SPARQL request failed")

// ErrMalformedResponse indicates the endpoint answered with a body that is not SPARQL JSON results.
var ErrMalformedResponse = errors.New("malformed SPARQL response")
