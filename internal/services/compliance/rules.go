package compliance

import (
	"sync"

	"go.uber.org/atomic"

	"clearance/internal/domain"
)

// DefaultRestrictedCodes are the industry codes restricted at start-up when
// configuration names none.
var DefaultRestrictedCodes = []string{"3579", "6531", "7371"}

// RuleStore owns the process-wide rule configuration. Readers load an
// immutable snapshot; writers are serialized and publish a whole new
// generation at once.
type RuleStore struct {
	mu   sync.Mutex
	snap *atomic.Pointer[domain.RuleConfig]
}

// NewRuleStore seeds the store with initial at generation 1. Codes are
// canonicalized.
func NewRuleStore(initial domain.RuleConfig) *RuleStore {
	cfg := initial.Clone()
	cfg.RestrictedCodes = domain.CanonicalCodes(cfg.RestrictedCodes)
	cfg.Generation = 1
	return &RuleStore{snap: atomic.NewPointer(&cfg)}
}

// DefaultRuleStore restricts DefaultRestrictedCodes with the rule enabled.
func DefaultRuleStore() *RuleStore {
	return NewRuleStore(domain.RuleConfig{RestrictedCodes: DefaultRestrictedCodes, RuleEnabled: true})
}

// Snapshot returns a private copy of the current generation.
func (s *RuleStore) Snapshot() domain.RuleConfig {
	return s.snap.Load().Clone()
}

// Update applies patch and publishes the result as the next generation. An
// empty patch still bumps the generation.
func (s *RuleStore) Update(patch domain.RuleConfigPatch) domain.RuleConfig {
	_, next := s.Swap(patch)
	return next
}

// Swap is Update that also returns the generation it replaced.
func (s *RuleStore) Swap(patch domain.RuleConfigPatch) (prev, next domain.RuleConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snap.Load()
	n := patch.Apply(*cur)
	n.Generation = cur.Generation + 1
	s.snap.Store(&n)
	return cur.Clone(), n.Clone()
}
