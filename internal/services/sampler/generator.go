package sampler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clearance/internal/ports"
	"clearance/internal/rawtree"
)

// RandomSource yields integers in [0, n). *math/rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

const dateLayout = "2006-01-02"

type broker struct {
	name, email string
}

type insured struct {
	name, sic, industry        string
	line1, city, state, zip    string
	minYears, maxYears         int
	minEmployees, maxEmployees int
}

var (
	brokers = []broker{
		{"ABC Insurance Brokers", "contact@abcbrokers.com"},
		{"Global Risk Partners", "info@grpartners.com"},
		{"Shield Insurance Services", "support@shieldinsurance.com"},
		{"Elite Coverage Group", "inquiries@elitecoverage.com"},
	}
	insureds = []insured{
		{"Acme Industries LLC", "3579", "Manufacturing", "123 Factory Lane", "Boston", "MA", "02108", 1, 30, 10, 500},
		{"TechSoft Solutions", "7371", "Technology", "456 Innovation Drive", "San Francisco", "CA", "94103", 1, 15, 5, 200},
		{"Omega Retail Group", "5311", "Retail", "789 Shopping Plaza", "Chicago", "IL", "60601", 1, 25, 20, 1000},
		{"GreenLeaf Properties", "6531", "Real Estate", "101 Property Blvd", "Miami", "FL", "33101", 1, 20, 5, 100},
	}
	coverageLines  = []string{"General Liability", "Property", "Workers Compensation", "Professional Liability", "Cyber"}
	documentTypes  = []string{"Application", "Loss Runs", "Statement of Values", "Financial Statement", "Risk Assessment"}
	documentStates = []string{"Processed", "Pending", "Failed"}
	workflowStates = []string{"New", "In Review", "Quoted", "Bound"}
	riskFactors    = []string{"Financial", "Operational", "Hazard", "Strategic"}
)

// Generator produces synthetic raw submission records for running without a
// document store. Output depends only on the random source and the clock.
type Generator struct {
	rnd   RandomSource
	clock ports.Clock
}

func New(rnd RandomSource, clock ports.Clock) *Generator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Generator{rnd: rnd, clock: clock}
}

// Records generates n records keyed by distinct SUB-##### ids.
func (g *Generator) Records(n int) []ports.Record {
	const lo, span = 10000, 90000
	if n > span {
		n = span
	}
	used := make(map[int]bool, n)
	out := make([]ports.Record, 0, n)
	for len(out) < n {
		num := lo + g.rnd.Intn(span)
		for used[num] {
			num = lo + (num-lo+1)%span
		}
		used[num] = true
		id := fmt.Sprintf("SUB-%d", num)
		out = append(out, ports.Record{Key: id, Body: g.Record(id)})
	}
	return out
}

// Record generates one raw record in the sample shape with the given id.
func (g *Generator) Record(id string) rawtree.Value {
	now := g.clock.Now().UTC()
	b := brokers[g.rnd.Intn(len(brokers))]
	ins := insureds[g.rnd.Intn(len(insureds))]

	body := map[string]any{
		"submission": map[string]any{
			"id":              id,
			"created_at":      now.AddDate(0, 0, -g.between(1, 30)).Format(dateLayout),
			"effective_date":  now.AddDate(0, 0, g.between(30, 90)).Format(dateLayout),
			"expiration_date": now.AddDate(0, 0, g.between(395, 400)).Format(dateLayout),
			"coverage_lines":  g.sample(coverageLines, g.between(1, 3)),
			"status":          g.pick(workflowStates),
		},
		"broker": map[string]any{
			"company_name":  b.name,
			"email_address": b.email,
		},
		"insured": map[string]any{
			"legal_name":           ins.name,
			"sic_code":             ins.sic,
			"industry_description": ins.industry,
			"address": map[string]any{
				"line1":       ins.line1,
				"city":        ins.city,
				"state":       ins.state,
				"postal_code": ins.zip,
			},
			"years_in_business": g.between(ins.minYears, ins.maxYears),
			"employee_count":    g.between(ins.minEmployees, ins.maxEmployees),
		},
		"risk_assessment": g.riskAssessment(),
		"documents":       g.documents(now),
	}
	return rawtree.FromAny(body)
}

func (g *Generator) riskAssessment() map[string]any {
	factors := make([]any, 0, len(riskFactors))
	for _, f := range riskFactors {
		factors = append(factors, map[string]any{"type": f, "score": g.between(1, 100)})
	}
	return map[string]any{
		"overall_score": g.between(1, 100),
		"factors":       factors,
		"notes":         "Sample risk assessment notes.",
	}
}

func (g *Generator) documents(now time.Time) []any {
	n := g.between(2, 5)
	docs := make([]any, 0, n)
	for i := 0; i < n; i++ {
		kind := g.pick(documentTypes)
		docs = append(docs, map[string]any{
			"doc_id":      g.shortID(),
			"name":        fmt.Sprintf("%s - %s", kind, now.Format("20060102")),
			"type":        kind,
			"upload_date": now.AddDate(0, 0, -g.between(1, 10)).Format(dateLayout),
			"size_kb":     g.between(100, 5000),
			"status":      g.pick(documentStates),
		})
	}
	return docs
}

// shortID is the first eight characters of a UUID drawn from the source.
func (g *Generator) shortID() string {
	id, err := uuid.NewRandomFromReader(sourceReader{g.rnd})
	if err != nil {
		return "00000000"
	}
	return id.String()[:8]
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rnd.Intn(hi-lo+1)
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

// sample draws k distinct elements in draw order.
func (g *Generator) sample(list []string, k int) []any {
	pool := append([]string(nil), list...)
	out := make([]any, 0, k)
	for i := 0; i < k && len(pool) > 0; i++ {
		j := g.rnd.Intn(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out
}

type sourceReader struct{ rnd RandomSource }

func (r sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rnd.Intn(256))
	}
	return len(p), nil
}
