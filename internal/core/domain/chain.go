// Package domain defines the core domain models for chainstate.
package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Chain metadata constraints.
const (
	MaxChainNameLength = 64
	MaxRPCURLs         = 16
)

// Protocol identifies the protocol family a chain speaks.
type Protocol string

// Supported protocol families.
const (
	ProtocolEthereum Protocol = "ethereum"
	ProtocolCosmos   Protocol = "cosmos"
	ProtocolSealevel Protocol = "sealevel"
	ProtocolStarknet Protocol = "starknet"
)

// IsValid reports whether p is a known protocol. The empty protocol is
// treated as ethereum.
func (p Protocol) IsValid() bool {
	switch p {
	case "", ProtocolEthereum, ProtocolCosmos, ProtocolSealevel, ProtocolStarknet:
		return true
	default:
		return false
	}
}

// RPCURL is a single RPC endpoint of a chain.
type RPCURL struct {
	HTTP string `json:"http" yaml:"http"`
}

// BlockExplorer describes a block explorer of a chain.
type BlockExplorer struct {
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	APIURL string `json:"apiUrl,omitempty" yaml:"apiUrl,omitempty"`
}

// NativeToken describes the gas token of a chain.
type NativeToken struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// ChainMetadata describes one network.
//
// The Name is the chain identifier and the key under which the metadata
// lives in a ChainMap. Field names follow the public chain registry
// format so registry documents decode without translation.
type ChainMetadata struct {
	Name           string          `json:"name" yaml:"name"`
	ChainID        string          `json:"chainId" yaml:"chainId"`
	DomainID       uint32          `json:"domainId,omitempty" yaml:"domainId,omitempty"`
	DisplayName    string          `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Protocol       Protocol        `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	RPCURLs        []RPCURL        `json:"rpcUrls" yaml:"rpcUrls"`
	BlockExplorers []BlockExplorer `json:"blockExplorers,omitempty" yaml:"blockExplorers,omitempty"`
	NativeToken    *NativeToken    `json:"nativeToken,omitempty" yaml:"nativeToken,omitempty"`
	IsTestnet      bool            `json:"isTestnet,omitempty" yaml:"isTestnet,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m ChainMetadata) Clone() ChainMetadata {
	c := m
	if m.RPCURLs != nil {
		c.RPCURLs = append([]RPCURL(nil), m.RPCURLs...)
	}
	if m.BlockExplorers != nil {
		c.BlockExplorers = append([]BlockExplorer(nil), m.BlockExplorers...)
	}
	if m.NativeToken != nil {
		nt := *m.NativeToken
		c.NativeToken = &nt
	}
	return c
}

// Validate checks the metadata for structural problems a connectivity
// handle cannot work with.
func (m ChainMetadata) Validate() error {
	if err := ValidateChainName(m.Name); err != nil {
		return err
	}
	if strings.TrimSpace(m.ChainID) == "" {
		return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain %q: chainId is required", m.Name))
	}
	if !m.Protocol.IsValid() {
		return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain %q: unknown protocol %q", m.Name, m.Protocol))
	}
	if len(m.RPCURLs) == 0 {
		return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain %q: at least one rpc url is required", m.Name))
	}
	if len(m.RPCURLs) > MaxRPCURLs {
		return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain %q: too many rpc urls (max %d)", m.Name, MaxRPCURLs))
	}
	for i, rpc := range m.RPCURLs {
		if err := validateEndpoint(rpc.HTTP); err != nil {
			return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain %q: rpcUrls[%d]: %v", m.Name, i, err))
		}
	}
	return nil
}

// EffectiveProtocol returns the protocol, defaulting to ethereum.
func (m ChainMetadata) EffectiveProtocol() Protocol {
	if m.Protocol == "" {
		return ProtocolEthereum
	}
	return m.Protocol
}

// ValidateChainName checks a chain identifier.
// Names are lowercase alphanumerics plus '-' and '_'.
func ValidateChainName(name string) error {
	if name == "" {
		return ErrInvalidChainMetadata.WithDetails("chain name is required")
	}
	if len(name) > MaxChainNameLength {
		return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain name %q exceeds %d characters", name, MaxChainNameLength))
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ErrInvalidChainMetadata.WithDetails(fmt.Sprintf("chain name %q contains invalid character %q", name, r))
		}
	}
	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// ChainMap maps chain names to metadata.
type ChainMap map[string]ChainMetadata

// Clone returns a deep copy of the map. A nil map clones to an empty map.
func (c ChainMap) Clone() ChainMap {
	out := make(ChainMap, len(c))
	for name, m := range c {
		out[name] = m.Clone()
	}
	return out
}

// Names returns the chain names in sorted order.
func (c ChainMap) Names() []string {
	return sortedKeys(c)
}

// OverrideMap maps chain names to user-supplied metadata that takes
// precedence over remotely fetched metadata. It is the only persisted
// entity.
type OverrideMap map[string]ChainMetadata

// Clone returns a deep copy of the map. A nil map clones to an empty map.
func (o OverrideMap) Clone() OverrideMap {
	out := make(OverrideMap, len(o))
	for name, m := range o {
		out[name] = m.Clone()
	}
	return out
}

// Names returns the chain names in sorted order.
func (o OverrideMap) Names() []string {
	return sortedKeys(o)
}

// With returns a copy of o with name set to m.
func (o OverrideMap) With(name string, m ChainMetadata) OverrideMap {
	out := o.Clone()
	out[name] = m.Clone()
	return out
}

// Without returns a copy of o with name removed.
func (o OverrideMap) Without(name string) OverrideMap {
	out := o.Clone()
	delete(out, name)
	return out
}

func sortedKeys[M ~map[string]ChainMetadata](m M) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
