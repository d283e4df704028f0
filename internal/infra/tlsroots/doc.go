// Package tlsroots loads TLS material for chainstate.
//
//   - roots.go: trust anchors for outbound HTTPS (the http registry
//     source), the system pool extended with operator CA files
//   - reloader.go: the serving certificate for the HTTP API, reloaded
//     when the certificate or key file changes on disk
package tlsroots
