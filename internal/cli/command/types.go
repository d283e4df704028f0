package command

import "github.com/yndnr/chainstate-go/internal/core/domain"

// Server response payloads (the envelope's data field).

type stateResponse struct {
	Overrides []string `json:"overrides" yaml:"overrides"`
	Chains    []string `json:"chains" yaml:"chains"`
	Ready     bool     `json:"ready" yaml:"ready"`
	Banner    string   `json:"banner,omitempty" yaml:"banner,omitempty"`
	Phase     string   `json:"phase,omitempty" yaml:"phase,omitempty"`
	Revision  uint64   `json:"revision" yaml:"revision"`
}

type chainsResponse struct {
	Chains []string `json:"chains" yaml:"chains"`
	Total  int      `json:"total" yaml:"total"`
}

type overridesResponse struct {
	Overrides domain.OverrideMap `json:"overrides" yaml:"overrides"`
}

type editResponse struct {
	Overrides []string `json:"overrides" yaml:"overrides"`
	Chains    []string `json:"chains" yaml:"chains"`
	Revision  uint64   `json:"revision" yaml:"revision"`
}

type bannerRequest struct {
	Banner string `json:"banner" yaml:"banner"`
}

type replaceOverridesRequest struct {
	Overrides domain.OverrideMap `json:"overrides"`
}
