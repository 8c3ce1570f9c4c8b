// Package rules resolves the aggregation policy for an apparatus.
//
// Apparatus-scoped rules arrive as read-only configuration: a judge count and
// whether high/low dropping applies. Apparatus without a configured rule fall
// back to the hard-coded default policy.
package rules

import (
	"github.com/okian/salto/internal/domain/aggregate"
)

// Rule declares how one apparatus's panels are aggregated.
type Rule struct {
	// PanelSize is the declared number of judges per panel. Advisory.
	PanelSize int `koanf:"panel_size"`

	// DropHighLow controls whether one high and one low value are removed.
	DropHighLow bool `koanf:"drop_high_low"`
}

// Provider resolves the aggregation policy for an apparatus code.
type Provider interface {
	// PolicyFor returns the policy for the apparatus code and whether an
	// explicit rule matched.
	PolicyFor(apparatusCode string) (aggregate.Policy, bool)
}

// StaticProvider serves policies from a fixed rule map keyed by apparatus code.
type StaticProvider struct {
	rules map[string]Rule
}

// NewStaticProvider builds a provider from configured rules. The map is copied
// so later mutation by the caller cannot change resolved policies.
func NewStaticProvider(rules map[string]Rule) *StaticProvider {
	copied := make(map[string]Rule, len(rules))
	for code, r := range rules {
		copied[code] = r
	}
	return &StaticProvider{rules: copied}
}

// PolicyFor implements Provider.
func (p *StaticProvider) PolicyFor(apparatusCode string) (aggregate.Policy, bool) {
	r, ok := p.rules[apparatusCode]
	if !ok {
		return aggregate.DefaultPolicy(), false
	}
	return aggregate.Policy{DropHighLow: r.DropHighLow, PanelSize: r.PanelSize}, true
}
