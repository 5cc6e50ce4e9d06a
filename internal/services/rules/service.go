package rules

import (
	"context"

	"go.uber.org/zap"

	"clearance/internal/domain"
	"clearance/internal/services/compliance"
)

// Service exposes the rule store to the transport layer.
type Service struct {
	store *compliance.RuleStore
	log   *zap.Logger
}

func New(store *compliance.RuleStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log.Named("rules")}
}

func (s *Service) Config() domain.RuleConfig { return s.store.Snapshot() }

func (s *Service) Update(_ context.Context, patch domain.RuleConfigPatch) domain.RuleConfig {
	before, after := s.store.Swap(patch)
	s.log.Info("rule config updated",
		zap.Uint64("generation", after.Generation),
		zap.Strings("restricted_codes", after.RestrictedCodes),
		zap.Bool("rule_enabled", after.RuleEnabled),
		zap.Bool("codes_changed", patch.RestrictedCodes != nil),
		zap.Bool("enabled_changed", before.RuleEnabled != after.RuleEnabled),
	)
	return after
}
