// Package server is the HTTP front end of the service: Gin routes behind a
// net/http middleware stack (request id, recovery, access log, CORS, body
// limit), served with HTTP/2 cleartext support.
//
// Subpackages:
//
//   - middleware: the middleware stack and bearer-token auth for API groups
//   - endpoint: /health, /ready and /info
package server
