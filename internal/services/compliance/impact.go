package compliance

import "clearance/internal/domain"

// Subject is one normalized submission together with its optional external
// financial signal.
type Subject struct {
	Submission domain.Submission
	Financial  *domain.FinancialSignal
}

// Outcome is a subject's overall status under two rule configurations.
type Outcome struct {
	SubmissionID string
	InsuredName  string
	Before       domain.SubmissionStatus
	After        domain.SubmissionStatus
}

func (o Outcome) Changed() bool { return o.Before != o.After }

// Compare evaluates s under before and after. Neither config is stored.
func (e *Engine) Compare(s Subject, before, after domain.RuleConfig) Outcome {
	return Outcome{
		SubmissionID: s.Submission.ID,
		InsuredName:  s.Submission.Insured.Name,
		Before:       e.Evaluate(s.Submission, before, s.Financial).OverallStatus,
		After:        e.Evaluate(s.Submission, after, s.Financial).OverallStatus,
	}
}

// Summarize counts outcomes per verdict and keeps up to maxSamples of the
// changed ones, in input order.
func Summarize(outcomes []Outcome, before, after domain.RuleConfig, maxSamples int) domain.ImpactAnalysis {
	res := domain.ImpactAnalysis{
		Evaluated:          len(outcomes),
		BeforeStatusCounts: verdictCounts(),
		AfterStatusCounts:  verdictCounts(),
		SampleAffected:     []domain.ImpactSample{},
		Before:             before.Clone(),
		After:              after.Clone(),
	}
	for _, o := range outcomes {
		res.BeforeStatusCounts[o.Before]++
		res.AfterStatusCounts[o.After]++
		if !o.Changed() {
			continue
		}
		res.AffectedSubmissions++
		if len(res.SampleAffected) < maxSamples {
			res.SampleAffected = append(res.SampleAffected, domain.ImpactSample{
				SubmissionID: o.SubmissionID,
				InsuredName:  o.InsuredName,
				Before:       o.Before,
				After:        o.After,
			})
		}
	}
	return res
}

func verdictCounts() map[domain.SubmissionStatus]int {
	return map[domain.SubmissionStatus]int{
		domain.StatusCompliant:    0,
		domain.StatusAtRisk:       0,
		domain.StatusNonCompliant: 0,
	}
}
