package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// Scope represents the visibility class of a memory record
type Scope string

const (
	// ScopeGlobal makes a memory visible to any agent acting for the owning user
	ScopeGlobal Scope = "global"

	// ScopeAgent restricts a memory to the agent that created it
	ScopeAgent Scope = "agent"
)

// Validate checks if the Scope is valid
func (s Scope) Validate() error {
	switch s {
	case ScopeGlobal, ScopeAgent:
		return nil
	default:
		return goerr.New("invalid scope", goerr.V("scope", s))
	}
}

// String returns the string representation of Scope
func (s Scope) String() string {
	return string(s)
}
