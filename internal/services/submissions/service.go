package submissions

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"clearance/internal/domain"
	"clearance/internal/ports"
	"clearance/internal/services/compliance"
	"clearance/internal/services/normalizer"
	"clearance/internal/workers/evalpool"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500

	DefaultImpactLimit = 100
	MaxImpactLimit     = 100
	MaxImpactSamples   = 10
)

// Deps are the collaborators of a Service. Cache, Pool and Log are optional.
type Deps struct {
	Source     ports.RecordSource
	Cache      ports.RecordCache
	Normalizer *normalizer.Normalizer
	Engine     *compliance.Engine
	Rules      *compliance.RuleStore
	Pool       *evalpool.Pool
	Log        *zap.Logger
}

// Service reads raw records, normalizes them and derives their compliance
// verdict against the current rule generation.
type Service struct {
	source ports.RecordSource
	cache  ports.RecordCache
	norm   *normalizer.Normalizer
	engine *compliance.Engine
	rules  *compliance.RuleStore
	pool   *evalpool.Pool
	log    *zap.Logger
}

func New(d Deps) *Service {
	if d.Pool == nil {
		d.Pool = evalpool.New(1)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Service{
		source: d.Source,
		cache:  d.Cache,
		norm:   d.Normalizer,
		engine: d.Engine,
		rules:  d.Rules,
		pool:   d.Pool,
		log:    d.Log.Named("submissions"),
	}
}

type evaluated struct {
	sub    domain.Submission
	report domain.Report
}

// evaluate normalizes rec and runs the engine under cfg. It is pure.
func (s *Service) evaluate(rec ports.Record, cfg domain.RuleConfig) evaluated {
	sub := s.norm.Normalize(rec.Body, rec.Key)
	var fin *domain.FinancialSignal
	if sig, ok := s.norm.FinancialSignal(rec.Body); ok {
		fin = &sig
	}
	return evaluated{sub: sub, report: s.engine.Evaluate(sub, cfg, fin)}
}

// List evaluates up to filter.Limit records and returns those matching the
// filter. All records in one call are judged against the same rule
// generation.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.SubmissionSummary, error) {
	limit := clamp(filter.Limit, DefaultListLimit, MaxListLimit)
	fetch := limit
	if filtered(filter) {
		fetch = MaxListLimit
	}
	records, err := s.source.List(ctx, fetch)
	if err != nil {
		return nil, err
	}
	cfg := s.rules.Snapshot()
	results, err := evalpool.Map(ctx, s.pool, records, func(_ context.Context, rec ports.Record) (evaluated, error) {
		return s.evaluate(rec, cfg), nil
	})
	if err != nil {
		return nil, err
	}

	wantDomain := registrableDomain(filter.BrokerDomain)
	out := make([]domain.SubmissionSummary, 0, min(limit, len(results)))
	for _, r := range results {
		if len(out) == limit {
			break
		}
		if filter.OverallStatus != "" && r.report.OverallStatus != filter.OverallStatus {
			continue
		}
		if code := strings.TrimSpace(filter.IndustryCode); code != "" && r.sub.Insured.IndustryCode != code {
			continue
		}
		if wantDomain != "" && registrableDomain(r.sub.Broker.Email) != wantDomain {
			continue
		}
		out = append(out, domain.SubmissionSummary{
			ID:            r.sub.ID,
			Timestamp:     r.sub.Timestamp,
			Status:        r.sub.Status,
			Broker:        r.sub.Broker,
			Insured:       r.sub.Insured,
			OverallStatus: r.report.OverallStatus,
		})
	}
	s.log.Debug("listed submissions",
		zap.Int("fetched", len(records)),
		zap.Int("returned", len(out)),
		zap.Uint64("generation", cfg.Generation),
	)
	return out, nil
}

// Get returns the canonical submission with its checks filled in.
func (s *Service) Get(ctx context.Context, id string) (domain.SubmissionDetail, error) {
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return domain.SubmissionDetail{}, err
	}
	r := s.evaluate(rec, s.rules.Snapshot())
	r.sub.ComplianceChecks = r.report.Checks
	return domain.SubmissionDetail{Submission: r.sub, OverallStatus: r.report.OverallStatus}, nil
}

func (s *Service) Compliance(ctx context.Context, id string) (domain.Report, error) {
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	r := s.evaluate(rec, s.rules.Snapshot())
	s.log.Debug("evaluated submission",
		zap.String("submission_id", r.report.SubmissionID),
		zap.String("status", string(r.report.OverallStatus)),
	)
	return r.report, nil
}

// Impact evaluates up to limit records under the current configuration and
// under the configuration patch would produce. Nothing is stored.
func (s *Service) Impact(ctx context.Context, patch domain.RuleConfigPatch, limit int) (domain.ImpactAnalysis, error) {
	limit = clamp(limit, DefaultImpactLimit, MaxImpactLimit)
	records, err := s.source.List(ctx, limit)
	if err != nil {
		return domain.ImpactAnalysis{}, err
	}
	before := s.rules.Snapshot()
	after := patch.Apply(before)

	outcomes, err := evalpool.Map(ctx, s.pool, records, func(_ context.Context, rec ports.Record) (compliance.Outcome, error) {
		subject := compliance.Subject{Submission: s.norm.Normalize(rec.Body, rec.Key)}
		if sig, ok := s.norm.FinancialSignal(rec.Body); ok {
			subject.Financial = &sig
		}
		return s.engine.Compare(subject, before, after), nil
	})
	if err != nil {
		return domain.ImpactAnalysis{}, err
	}
	res := compliance.Summarize(outcomes, before, after, MaxImpactSamples)
	s.log.Info("rule impact analysed",
		zap.Int("evaluated", res.Evaluated),
		zap.Int("affected", res.AffectedSubmissions),
		zap.Uint64("generation", before.Generation),
	)
	return res, nil
}

// fetch reads through the cache when one is configured. Cache failures are
// logged and otherwise ignored.
func (s *Service) fetch(ctx context.Context, id string) (ports.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ports.Record{}, domain.ErrNotFound
	}
	if s.cache != nil {
		rec, found, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.log.Warn("record cache read failed", zap.String("submission_id", id), zap.Error(err))
		case found:
			return rec, nil
		}
	}
	rec, err := s.source.Get(ctx, id)
	if err != nil {
		return ports.Record{}, err
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, rec); err != nil {
			s.log.Warn("record cache write failed", zap.String("submission_id", id), zap.Error(err))
		}
	}
	return rec, nil
}

func filtered(f domain.ListFilter) bool {
	return f.OverallStatus != "" || strings.TrimSpace(f.IndustryCode) != "" || strings.TrimSpace(f.BrokerDomain) != ""
}

func clamp(v, def, ceiling int) int {
	switch {
	case v <= 0:
		return def
	case v > ceiling:
		return ceiling
	}
	return v
}

// registrableDomain reduces an e-mail address, URL or host name to its
// registrable domain ("mail.grpartners.com" -> "grpartners.com").
func registrableDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/:?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(s)
	if err != nil {
		return s
	}
	return registrable
}
