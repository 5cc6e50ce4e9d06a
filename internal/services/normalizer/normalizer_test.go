package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"clearance/internal/domain"
	"clearance/internal/rawtree"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, time.February, 5, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return New(DefaultMapping(), fixedClock{now: testNow})
}

func parse(t *testing.T, doc string) rawtree.Value {
	t.Helper()
	v, err := rawtree.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestNormalizeEmptyRecordFillsEveryDefault(t *testing.T) {
	got := newTestNormalizer().Normalize(rawtree.Object(nil), "")
	want := domain.Submission{
		ID:        "Unknown",
		Timestamp: "2026-02-05T12:00:00Z",
		Status:    domain.StatusNew,
		Broker:    domain.Broker{Name: "Unknown", Email: ""},
		Insured: domain.Insured{
			Name:                "Unknown",
			IndustryCode:        "Unknown",
			IndustryDescription: "Unknown",
		},
		Coverage:         domain.Coverage{Lines: []string{}},
		Documents:        []domain.Document{},
		ComplianceChecks: []domain.ComplianceCheck{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "timestamp", "status", "broker", "insured", "coverage", "documents", "complianceChecks"} {
		if generic[key] == nil {
			t.Errorf("field %q is absent or null in %s", key, out)
		}
	}
}

func TestNormalizeNeverFailsOnOddShapes(t *testing.T) {
	inputs := []rawtree.Value{
		rawtree.Absent(),
		rawtree.Null(),
		rawtree.String("just text"),
		rawtree.Number(7),
		rawtree.Array([]rawtree.Value{rawtree.Null(), rawtree.Bool(true)}),
		parse(t, `{"bp_parsed_response":"not an object","documents":{"a":1},"insured":[1,2]}`),
		parse(t, `{"documents":[1,"two",null,{"name":{"deep":true}}]}`),
	}
	n := newTestNormalizer()
	for _, in := range inputs {
		sub := n.Normalize(in, "")
		if sub.ID != "Unknown" || sub.Coverage.Lines == nil || sub.Documents == nil {
			t.Errorf("kind %s: unexpected result %+v", in.Kind(), sub)
		}
	}
}

func TestNormalizeDocumentStoreShape(t *testing.T) {
	raw := parse(t, `{
		"tx_id": "TX-42",
		"created_on": "2026-01-10T08:00:00Z",
		"status": "In Review",
		"bp_parsed_response": {"Common": {
			"Broker Details": {
				"broker_name": {"value": "Global Risk Partners"},
				"broker_email": {"value": "Info@GRPartners.com"}
			},
			"Firmographics": {
				"company_name": {"value": "GreenLeaf Properties"},
				"primary_naics_2017": [{"code": 6531, "desc": "Real Estate"}],
				"address_1": {"value": "101 Property Blvd"},
				"city": {"value": "Miami"},
				"state": {"value": "FL"},
				"postal_code": {"value": "33101"},
				"years_in_business": {"value": "12"},
				"total_full_time_employees": {"value": 1250.0}
			},
			"Limits and Coverages": {"normalized_coverage": "Property"},
			"Product Details": {
				"policy_inception_date": {"value": "2026-03-01"},
				"end_date": {"value": "2027-03-01"}
			}
		}}
	}`)
	got := newTestNormalizer().Normalize(raw, "")
	want := domain.Submission{
		ID:        "TX-42",
		Timestamp: "2026-01-10T08:00:00Z",
		Status:    domain.StatusInReview,
		Broker:    domain.Broker{Name: "Global Risk Partners", Email: "info@grpartners.com"},
		Insured: domain.Insured{
			Name:                "GreenLeaf Properties",
			IndustryCode:        "6531",
			IndustryDescription: "Real Estate",
			Address:             domain.Address{Street: "101 Property Blvd", City: "Miami", State: "FL", Zip: "33101"},
			YearsInBusiness:     12,
			EmployeeCount:       1250,
		},
		Coverage: domain.Coverage{
			Lines:          []string{"Property"},
			EffectiveDate:  "2026-03-01",
			ExpirationDate: "2027-03-01",
		},
		Documents:        []domain.Document{},
		ComplianceChecks: []domain.ComplianceCheck{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSampleShapeWithDocuments(t *testing.T) {
	raw := parse(t, `{
		"submission": {
			"id": "SUB-12345",
			"created_at": "2026-01-20",
			"effective_date": "2026-04-01",
			"expiration_date": "2027-03-05",
			"coverage_lines": ["Cyber", "", 3, "Property"],
			"status": "quoted"
		},
		"broker": {"company_name": "ABC Insurance Brokers", "email_address": "contact@abcbrokers.com"},
		"insured": {
			"legal_name": "Acme Industries LLC",
			"sic_code": "3579",
			"industry_description": "Manufacturing",
			"address": {"line1": "123 Factory Lane", "city": "Boston", "state": "MA", "postal_code": "02108"},
			"years_in_business": 7,
			"employee_count": -4
		},
		"documents": [
			{"doc_id": "a1b2c3d4", "name": "Application - 20260120", "type": "Application", "size_kb": 1200, "status": "Processed"},
			{"name": "Loss Runs", "type": "Loss Runs", "status": "weird"},
			"not a document"
		]
	}`)
	got := newTestNormalizer().Normalize(raw, "")
	if got.ID != "SUB-12345" || got.Status != domain.StatusQuoted || got.Timestamp != "2026-01-20" {
		t.Fatalf("header fields wrong: %+v", got)
	}
	if diff := cmp.Diff([]string{"Cyber", "Property"}, got.Coverage.Lines); diff != "" {
		t.Fatalf("coverage lines (-want +got):\n%s", diff)
	}
	if got.Insured.EmployeeCount != 0 || got.Insured.YearsInBusiness != 7 {
		t.Fatalf("counts wrong: %+v", got.Insured)
	}
	wantDocs := []domain.Document{
		{ID: "a1b2c3d4", Name: "Application - 20260120", Type: "Application", Status: domain.DocumentProcessed, SizeKb: 1200},
		{ID: "DOC-2", Name: "Loss Runs", Type: "Loss Runs", Status: domain.DocumentPending, SizeKb: 0},
	}
	if diff := cmp.Diff(wantDocs, got.Documents); diff != "" {
		t.Fatalf("documents (-want +got):\n%s", diff)
	}
}

func TestIDHintOverridesResolvedID(t *testing.T) {
	raw := parse(t, `{"tx_id":"TX-1"}`)
	n := newTestNormalizer()
	if got := n.Normalize(raw, " SUB-99 ").ID; got != "SUB-99" {
		t.Fatalf("expected hint to win, got %q", got)
	}
	if got := n.Normalize(raw, "  ").ID; got != "TX-1" {
		t.Fatalf("blank hint should be ignored, got %q", got)
	}
}

func TestCoverageLinesWrongTypeIsEmpty(t *testing.T) {
	raw := parse(t, `{"coverage":{"lines":{"not":"a list"}}}`)
	got := newTestNormalizer().Normalize(raw, "")
	if got.Coverage.Lines == nil || len(got.Coverage.Lines) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got.Coverage.Lines)
	}
}

func TestWrongShapedCandidateDoesNotHideLaterOne(t *testing.T) {
	raw := parse(t, `{
		"submission": {"coverage_lines": 42},
		"coverage": {"lines": ["GL", "Cyber"]}
	}`)
	got := newTestNormalizer().Normalize(raw, "")
	if diff := cmp.Diff([]string{"GL", "Cyber"}, got.Coverage.Lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}

	m := DefaultMapping()
	m.Documents = []string{"docs", "documents"}
	raw = parse(t, `{"docs": "see attachments", "documents": [{"type": "Application"}]}`)
	docs := New(m, fixedClock{now: testNow}).Normalize(raw, "").Documents
	if len(docs) != 1 || docs[0].Type != "Application" {
		t.Fatalf("documents %+v", docs)
	}
}

func TestNativeTimesBecomeISO8601(t *testing.T) {
	stored := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.FixedZone("EST", -5*3600))
	raw := rawtree.Object(map[string]rawtree.Value{
		"_store": rawtree.Object(map[string]rawtree.Value{"createdAt": rawtree.Time(stored)}),
		"coverage": rawtree.Object(map[string]rawtree.Value{
			"effectiveDate":  rawtree.Time(stored),
			"expirationDate": rawtree.Number(1767000000),
		}),
	})
	got := newTestNormalizer().Normalize(raw, "")
	if got.Timestamp != "2026-01-02T08:04:05Z" {
		t.Fatalf("timestamp = %q", got.Timestamp)
	}
	if got.Coverage.EffectiveDate != "2026-01-02T08:04:05Z" {
		t.Fatalf("effective date = %q", got.Coverage.EffectiveDate)
	}
	if got.Coverage.ExpirationDate != "" {
		t.Fatalf("numeric dates are not dates, got %q", got.Coverage.ExpirationDate)
	}
}

func TestNormalizeIsPure(t *testing.T) {
	raw := parse(t, `{"submission":{"id":"SUB-1","coverage_lines":["GL"]},"documents":[{"name":"Financial Statement"}]}`)
	n := newTestNormalizer()
	first, _ := json.Marshal(n.Normalize(raw, ""))
	second, _ := json.Marshal(n.Normalize(raw, ""))
	if string(first) != string(second) {
		t.Fatalf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestParseSubmissionStatus(t *testing.T) {
	cases := map[string]domain.SubmissionStatus{
		"In Review":     domain.StatusInReview,
		"in_review":     domain.StatusInReview,
		"At Risk":       domain.StatusAtRisk,
		"Non-Compliant": domain.StatusNonCompliant,
		"BOUND":         domain.StatusBound,
	}
	for in, want := range cases {
		got, ok := ParseSubmissionStatus(in)
		if !ok || got != want {
			t.Errorf("ParseSubmissionStatus(%q) = %q,%v", in, got, ok)
		}
	}
	if _, ok := ParseSubmissionStatus("archived"); ok {
		t.Errorf("unexpected match for archived")
	}
}

func TestFinancialSignal(t *testing.T) {
	n := newTestNormalizer()
	raw := parse(t, `{"risk_assessment":{"factors":[{"type":"Hazard","score":10},{"type":"Financial","score":"77"}]}}`)
	sig, ok := n.FinancialSignal(raw)
	if !ok || sig.Score != 77 || sig.Source != "risk_assessment.factors" {
		t.Fatalf("unexpected signal %+v ok=%v", sig, ok)
	}

	raw = parse(t, `{"financial_score": 12}`)
	if sig, ok := n.FinancialSignal(raw); !ok || sig.Score != 12 {
		t.Fatalf("scalar score not found: %+v", sig)
	}

	if _, ok := n.FinancialSignal(parse(t, `{"risk_assessment":{"factors":"none"}}`)); ok {
		t.Fatalf("expected no signal")
	}
}

func TestParseMappingOverridesOnlyGivenFields(t *testing.T) {
	m, err := ParseMapping([]byte("id:\n  - record.key\nbroker_name: [agent.name]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"record.key"}, m.ID); diff != "" {
		t.Fatalf("id override (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultMapping().City, m.City); diff != "" {
		t.Fatalf("city should keep default (-want +got):\n%s", diff)
	}

	sub := New(m, fixedClock{now: testNow}).Normalize(parse(t, `{"record":{"key":"R-1"},"agent":{"name":"Ann"}}`), "")
	if sub.ID != "R-1" || sub.Broker.Name != "Ann" {
		t.Fatalf("override not applied: %+v", sub)
	}

	if _, err := ParseMapping([]byte("no_such_field: [x]\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if m, err := ParseMapping(nil); err != nil || len(m.ID) == 0 {
		t.Fatalf("empty file should yield defaults, err=%v", err)
	}
}
