package ports

import (
	"context"

	"clearance/internal/domain"
)

// Submissions serves normalized, evaluated submissions.
type Submissions interface {
	List(ctx context.Context, filter domain.ListFilter) ([]domain.SubmissionSummary, error)
	Get(ctx context.Context, id string) (domain.SubmissionDetail, error)
	Compliance(ctx context.Context, id string) (domain.Report, error)
	Impact(ctx context.Context, patch domain.RuleConfigPatch, limit int) (domain.ImpactAnalysis, error)
}

// Rules reads and updates the restricted-industry rule.
type Rules interface {
	Config() domain.RuleConfig
	Update(ctx context.Context, patch domain.RuleConfigPatch) domain.RuleConfig
}
