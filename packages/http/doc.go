// Package http provides the HTTP transport used to dispatch resolved
// requests.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - An optional request-per-second cap
//   - Body encoders for json, form, multipart, text and file payloads
//   - Responses exposed as rester values (status, headers, json)
package http
