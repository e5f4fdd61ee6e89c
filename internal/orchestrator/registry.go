package orchestrator

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/batonlabs/baton/pkg/models"
)

// AgentRegistry holds the agent roster for a session.
// It provides thread-safe storage and retrieval of agent profiles.
type AgentRegistry struct {
	// profiles maps agent IDs to their profiles.
	profiles map[string]models.AgentProfile
	// mu protects profiles.
	mu sync.RWMutex
}

// NewAgentRegistry creates an empty registry.
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{
		profiles: make(map[string]models.AgentProfile),
	}
}

// Register adds an agent profile. Registering an ID twice is an error:
// the roster must stay unambiguous for the whole session.
func (r *AgentRegistry) Register(p models.AgentProfile) error {
	if p.ID == "" {
		return fmt.Errorf("agent profile has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.ID]; exists {
		return fmt.Errorf("agent %q already registered", p.ID)
	}
	r.profiles[p.ID] = p
	return nil
}

// Get retrieves a profile by ID.
func (r *AgentRegistry) Get(agentID string) (models.AgentProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[agentID]
	return p, ok
}

// IDs returns the registered agent IDs in sorted order.
func (r *AgentRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns the registered profiles sorted by ID.
func (r *AgentRegistry) All() []models.AgentProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := make([]models.AgentProfile, 0, len(ids))
	for _, id := range ids {
		profiles = append(profiles, r.profiles[id])
	}
	return profiles
}

// Count returns the number of registered agents.
func (r *AgentRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// rosterFile is the on-disk shape of an agents.yaml roster.
type rosterFile struct {
	Agents []models.AgentProfile `yaml:"agents"`
}

// LoadProfiles reads an agents.yaml roster and returns a registry with
// every listed profile registered.
func LoadProfiles(path string) (*AgentRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent roster: %w", err)
	}

	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse agent roster: %w", err)
	}
	if len(roster.Agents) == 0 {
		return nil, fmt.Errorf("agent roster %s lists no agents", path)
	}

	reg := NewAgentRegistry()
	for _, p := range roster.Agents {
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("agent roster %s: %w", path, err)
		}
	}
	return reg, nil
}

// DefaultProfiles returns the built-in roster used when no agents.yaml
// is present. Together the four agents cover every capability the
// planner emits.
func DefaultProfiles() []models.AgentProfile {
	return []models.AgentProfile{
		{
			ID: "architect",
			Capabilities: []models.Capability{
				models.CapabilityArchitecture,
				models.CapabilityPlanning,
				models.CapabilityReasoning,
			},
		},
		{
			ID: "builder",
			Capabilities: []models.Capability{
				models.CapabilityCoding,
				models.CapabilityImplementation,
				models.CapabilityTesting,
			},
		},
		{
			ID: "debugger",
			Capabilities: []models.Capability{
				models.CapabilityDebugging,
				models.CapabilityAnalysis,
				models.CapabilityCoding,
			},
		},
		{
			ID: "reviewer",
			Capabilities: []models.Capability{
				models.CapabilityReasoning,
				models.CapabilityAnalysis,
			},
		},
	}
}

// DefaultRegistry builds a registry from DefaultProfiles.
func DefaultRegistry() *AgentRegistry {
	reg := NewAgentRegistry()
	for _, p := range DefaultProfiles() {
		// The built-in roster has no duplicate IDs.
		_ = reg.Register(p)
	}
	return reg
}
