package orchestrator

import (
	"errors"

	"github.com/batonlabs/baton/pkg/models"
)

// ErrNoEligibleAgent is returned when selection runs against an empty
// registry. A populated registry always yields a winner.
var ErrNoEligibleAgent = errors.New("no eligible agent: registry is empty")

// SelectAgent scores every registered agent against the step's required
// capabilities and returns the winning agent's ID. The score is the
// fraction of required capabilities the agent declares. Ties prefer an
// agent other than previousAgentID, then the lexicographically smallest
// ID, so selection is deterministic for a given roster.
func SelectAgent(reg *AgentRegistry, step models.Step, previousAgentID string) (string, error) {
	ids := reg.IDs()
	if len(ids) == 0 {
		return "", ErrNoEligibleAgent
	}

	bestID := ""
	bestScore := -1.0
	for _, id := range ids {
		profile, _ := reg.Get(id)
		score := capabilityScore(profile, step.Required)

		if score > bestScore {
			bestID, bestScore = id, score
			continue
		}
		// IDs arrive sorted, so on an exact tie the incumbent is already
		// the smallest. It only loses the tie when it is the agent we
		// are trying to rotate away from.
		if score == bestScore && bestID == previousAgentID && id != previousAgentID {
			bestID = id
		}
	}

	return bestID, nil
}

// capabilityScore is the fraction of required capabilities the profile
// declares, in [0, 1]. A step with no requirements scores zero for
// every agent, leaving the choice to the tie-break rules.
func capabilityScore(p models.AgentProfile, required []models.Capability) float64 {
	if len(required) == 0 {
		return 0
	}

	matched := 0
	for _, c := range required {
		if p.HasCapability(c) {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}
