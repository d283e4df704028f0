// Package connection provides the HTTP client chainstate-cli uses to
// talk to a chainstate server.
//
// Every server response uses the standard envelope
// {code, message, request_id, data}. ParseResponse unwraps data into the
// caller's target and turns error envelopes into *APIError.
package connection
