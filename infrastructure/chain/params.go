package chain

import "math/big"

// =============================================================================
// Contract Parameter Types
// =============================================================================

// ContractParam represents a contract parameter in an invokefunction RPC
// call.
type ContractParam struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// NewStringParam creates a string parameter, used for NEP-11 token ids.
func NewStringParam(value string) ContractParam {
	return ContractParam{Type: "String", Value: value}
}

// NewIntegerParam creates an integer parameter, used for mint/burn
// quantities and currency amounts.
func NewIntegerParam(value *big.Int) ContractParam {
	return ContractParam{Type: "Integer", Value: value.String()}
}

// NewHash160Param creates a Hash160 (wallet address) parameter.
func NewHash160Param(value string) ContractParam {
	return ContractParam{Type: "Hash160", Value: value}
}
