package compliance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"clearance/internal/domain"
	"clearance/internal/ports"
)

const (
	CheckDocuments = "DOC-001"
	CheckRisk      = "RISK-001"
	CheckFinancial = "FIN-001"
)

// Options tune the document and financial checks.
type Options struct {
	RequiredDocuments []string
	AttentionScore    float64
	FailScore         float64
}

func DefaultOptions() Options {
	return Options{
		RequiredDocuments: []string{"Application", "Financial Statement"},
		AttentionScore:    60,
		FailScore:         85,
	}
}

// Engine derives compliance checks for canonical submissions. It holds no
// mutable state; the rule configuration is passed per call.
type Engine struct {
	opts  Options
	clock ports.Clock
}

func NewEngine(opts Options, clock ports.Clock) *Engine {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if len(opts.RequiredDocuments) == 0 {
		opts.RequiredDocuments = DefaultOptions().RequiredDocuments
	}
	return &Engine{opts: opts, clock: clock}
}

// Evaluate runs every check against sub under cfg. fin may be nil when the
// record carries no financial score.
func (e *Engine) Evaluate(sub domain.Submission, cfg domain.RuleConfig, fin *domain.FinancialSignal) domain.Report {
	ts := e.clock.Now().UTC().Format(time.RFC3339)
	checks := []domain.ComplianceCheck{
		e.documentCheck(sub, ts),
		riskCheck(sub, cfg, ts),
		e.financialCheck(fin, ts),
	}
	return domain.Report{
		SubmissionID:  sub.ID,
		Timestamp:     ts,
		Checks:        checks,
		OverallStatus: Aggregate(checks),
	}
}

// Aggregate folds check statuses into an overall verdict. A non-compliant
// check decides the outcome; attention only ever raises Compliant to AtRisk.
func Aggregate(checks []domain.ComplianceCheck) domain.SubmissionStatus {
	overall := domain.StatusCompliant
	for _, c := range checks {
		switch c.Status {
		case domain.CheckNonCompliant:
			return domain.StatusNonCompliant
		case domain.CheckAttention:
			overall = domain.StatusAtRisk
		}
	}
	return overall
}

func (e *Engine) documentCheck(sub domain.Submission, ts string) domain.ComplianceCheck {
	var available, missing, pending []string
	for _, d := range sub.Documents {
		if d.Status != domain.DocumentFailed {
			available = appendUnique(available, d.Type)
		}
	}
	for _, category := range e.opts.RequiredDocuments {
		found := false
		for _, d := range sub.Documents {
			if d.Status == domain.DocumentFailed || !matchesCategory(d, category) {
				continue
			}
			found = true
			if d.Status == domain.DocumentPending {
				pending = appendUnique(pending, d.Name)
			}
		}
		if !found {
			missing = append(missing, category)
		}
	}

	check := domain.ComplianceCheck{
		CheckID:   CheckDocuments,
		Category:  domain.CategoryDocumentCompleteness,
		Status:    domain.CheckCompliant,
		Findings:  "All required documents are present",
		Timestamp: ts,
		DataPoints: map[string]string{
			"requiredDocuments":  strings.Join(e.opts.RequiredDocuments, ", "),
			"availableDocuments": joinOrNone(available),
		},
	}
	if len(missing) > 0 {
		check.Status = domain.CheckAttention
		check.Findings = "Missing required documents: " + strings.Join(missing, ", ")
		check.DataPoints["missingDocuments"] = strings.Join(missing, ", ")
	}
	if len(pending) > 0 {
		check.DataPoints["pendingDocuments"] = strings.Join(pending, ", ")
	}
	return check
}

func matchesCategory(d domain.Document, category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return false
	}
	return strings.Contains(strings.ToLower(d.Type), c) || strings.Contains(strings.ToLower(d.Name), c)
}

func riskCheck(sub domain.Submission, cfg domain.RuleConfig, ts string) domain.ComplianceCheck {
	code := sub.Insured.IndustryCode
	check := domain.ComplianceCheck{
		CheckID:   CheckRisk,
		Category:  domain.CategoryRiskAppetite,
		Status:    domain.CheckCompliant,
		Timestamp: ts,
		DataPoints: map[string]string{
			"industryCode":        code,
			"industryDescription": sub.Insured.IndustryDescription,
		},
	}
	switch {
	case !cfg.RuleEnabled:
		check.Findings = "Industry restriction rule is disabled"
	case cfg.Restricts(code):
		check.Status = domain.CheckNonCompliant
		check.Findings = fmt.Sprintf("Industry code %s is on the restricted list", code)
		check.DataPoints["restrictedCodes"] = strings.Join(domain.CanonicalCodes(cfg.RestrictedCodes), ", ")
	default:
		check.Findings = fmt.Sprintf("Industry code %s is within risk appetite", code)
	}
	return check
}

func (e *Engine) financialCheck(fin *domain.FinancialSignal, ts string) domain.ComplianceCheck {
	check := domain.ComplianceCheck{
		CheckID:    CheckFinancial,
		Category:   domain.CategoryFinancialStability,
		Status:     domain.CheckCompliant,
		Findings:   "No external financial score available",
		Timestamp:  ts,
		DataPoints: map[string]string{},
	}
	if fin == nil {
		return check
	}
	score := formatScore(fin.Score)
	check.DataPoints["financialScore"] = score
	check.DataPoints["source"] = fin.Source
	switch {
	case fin.Score >= e.opts.FailScore:
		check.Status = domain.CheckNonCompliant
		check.Findings = fmt.Sprintf("Financial risk score %s is at or above the fail threshold %s", score, formatScore(e.opts.FailScore))
	case fin.Score >= e.opts.AttentionScore:
		check.Status = domain.CheckAttention
		check.Findings = fmt.Sprintf("Financial risk score %s needs review (threshold %s)", score, formatScore(e.opts.AttentionScore))
	default:
		check.Findings = fmt.Sprintf("Financial risk score %s is acceptable", score)
	}
	return check
}

func formatScore(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func appendUnique(list []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return list
	}
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

func joinOrNone(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}
