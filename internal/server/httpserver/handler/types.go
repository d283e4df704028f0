// Package handler provides HTTP request handlers for chainstate.
package handler

import (
	"time"

	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StateResponse is the response body for GET /v1/state.
type StateResponse struct {
	Overrides []string `json:"overrides"`
	Chains    []string `json:"chains"`
	Ready     bool     `json:"ready"`
	Banner    string   `json:"banner,omitempty"`
	Phase     string   `json:"phase,omitempty"`
	Revision  uint64   `json:"revision"`
}

// ChainsResponse is the response body for GET /v1/chains.
type ChainsResponse struct {
	Chains []string `json:"chains"`
	Total  int      `json:"total"`
}

// OverridesResponse is the response body for GET /v1/overrides.
type OverridesResponse struct {
	Overrides domain.OverrideMap `json:"overrides"`
}

// ReplaceOverridesRequest is the request body for PUT /v1/overrides.
type ReplaceOverridesRequest struct {
	Overrides domain.OverrideMap `json:"overrides"`
}

// EditResponse is the response body for override edits and rebuilds.
type EditResponse struct {
	Overrides []string `json:"overrides"`
	Chains    []string `json:"chains"`
	Revision  uint64   `json:"revision"`
}

// BannerRequest is the request body for PUT /v1/banner.
type BannerRequest struct {
	Banner string `json:"banner"`
}
