package domain

// Canonical submission model. Field names and enum strings are the wire
// contract consumed by the front end; keep them stable.

type SubmissionStatus string

const (
	StatusNew          SubmissionStatus = "New"
	StatusInReview     SubmissionStatus = "InReview"
	StatusQuoted       SubmissionStatus = "Quoted"
	StatusBound        SubmissionStatus = "Bound"
	StatusCompliant    SubmissionStatus = "Compliant"
	StatusAtRisk       SubmissionStatus = "AtRisk"
	StatusNonCompliant SubmissionStatus = "NonCompliant"
)

// SubmissionStatuses lists every canonical status in declaration order.
var SubmissionStatuses = []SubmissionStatus{
	StatusNew, StatusInReview, StatusQuoted, StatusBound,
	StatusCompliant, StatusAtRisk, StatusNonCompliant,
}

type DocumentStatus string

const (
	DocumentProcessed DocumentStatus = "Processed"
	DocumentPending   DocumentStatus = "Pending"
	DocumentFailed    DocumentStatus = "Failed"
)

var DocumentStatuses = []DocumentStatus{DocumentProcessed, DocumentPending, DocumentFailed}

type CheckCategory string

const (
	CategoryRiskAppetite         CheckCategory = "RiskAppetite"
	CategoryFinancialStability   CheckCategory = "FinancialStability"
	CategoryDocumentCompleteness CheckCategory = "DocumentCompleteness"
)

type CheckStatus string

const (
	CheckCompliant    CheckStatus = "compliant"
	CheckAttention    CheckStatus = "attention"
	CheckNonCompliant CheckStatus = "non-compliant"
)

type Submission struct {
	ID               string            `json:"id"`
	Timestamp        string            `json:"timestamp"`
	Status           SubmissionStatus  `json:"status"`
	Broker           Broker            `json:"broker"`
	Insured          Insured           `json:"insured"`
	Coverage         Coverage          `json:"coverage"`
	Documents        []Document        `json:"documents"`
	ComplianceChecks []ComplianceCheck `json:"complianceChecks"`
}

type Broker struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Insured struct {
	Name                string  `json:"name"`
	IndustryCode        string  `json:"industryCode"`
	IndustryDescription string  `json:"industryDescription"`
	Address             Address `json:"address"`
	YearsInBusiness     int     `json:"yearsInBusiness"`
	EmployeeCount       int     `json:"employeeCount"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type Coverage struct {
	Lines          []string `json:"lines"`
	EffectiveDate  string   `json:"effectiveDate"`
	ExpirationDate string   `json:"expirationDate"`
}

type Document struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Status DocumentStatus `json:"status"`
	SizeKb int            `json:"sizeKb"`
}

type ComplianceCheck struct {
	CheckID    string            `json:"checkId"`
	Category   CheckCategory     `json:"category"`
	Status     CheckStatus       `json:"status"`
	Findings   string            `json:"findings"`
	Timestamp  string            `json:"timestamp"`
	DataPoints map[string]string `json:"dataPoints"`
}

// Report is the outcome of one compliance evaluation.
type Report struct {
	SubmissionID  string            `json:"submissionId"`
	Timestamp     string            `json:"timestamp"`
	Checks        []ComplianceCheck `json:"checks"`
	OverallStatus SubmissionStatus  `json:"overallStatus"`
}

// FinancialSignal is an externally supplied financial risk score, 1-100,
// higher meaning riskier.
type FinancialSignal struct {
	Score  float64
	Source string
}
