package models

import "strings"

// Capability is a declared skill tag used to match agents to plan steps.
// Equality is exact string match.
type Capability string

const (
	// CapabilityArchitecture covers system and component design.
	CapabilityArchitecture Capability = "architecture"
	// CapabilityPlanning covers breaking work into ordered pieces.
	CapabilityPlanning Capability = "planning"
	// CapabilityCoding covers writing code.
	CapabilityCoding Capability = "coding"
	// CapabilityImplementation covers turning a design into working software.
	CapabilityImplementation Capability = "implementation"
	// CapabilityDebugging covers locating and repairing defects.
	CapabilityDebugging Capability = "debugging"
	// CapabilityAnalysis covers examining existing work or behavior.
	CapabilityAnalysis Capability = "analysis"
	// CapabilityReasoning covers evaluation and judgment calls.
	CapabilityReasoning Capability = "reasoning"
	// CapabilityTesting covers exercising code for correctness.
	CapabilityTesting Capability = "testing"
)

// AgentProfile describes a registered agent and its declared capabilities.
// Profiles are loaded once at process start and are read-only afterwards.
type AgentProfile struct {
	// ID uniquely identifies the agent.
	ID string `json:"id" yaml:"id"`
	// Capabilities lists the skill tags the agent declares.
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`
}

// HasCapability reports whether the profile declares the given capability.
func (p *AgentProfile) HasCapability(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// CapabilityList returns the capabilities as a comma-separated string
// for display.
func (p *AgentProfile) CapabilityList() string {
	parts := make([]string, len(p.Capabilities))
	for i, c := range p.Capabilities {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
