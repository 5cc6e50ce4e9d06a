package domain

// SubmissionSummary is the list-view projection of an evaluated submission.
type SubmissionSummary struct {
	ID            string           `json:"id"`
	Timestamp     string           `json:"timestamp"`
	Status        SubmissionStatus `json:"status"`
	Broker        Broker           `json:"broker"`
	Insured       Insured          `json:"insured"`
	OverallStatus SubmissionStatus `json:"overallStatus"`
}

// SubmissionDetail is a canonical submission with its derived compliance
// checks filled in.
type SubmissionDetail struct {
	Submission
	OverallStatus SubmissionStatus `json:"overallStatus"`
}

// ListFilter narrows a submission listing. Zero fields match everything.
type ListFilter struct {
	Limit         int
	OverallStatus SubmissionStatus
	IndustryCode  string
	BrokerDomain  string
}

// ImpactSample is one submission whose overall status a rule change flips.
type ImpactSample struct {
	SubmissionID string           `json:"submissionId"`
	InsuredName  string           `json:"insuredName"`
	Before       SubmissionStatus `json:"before"`
	After        SubmissionStatus `json:"after"`
}

// ImpactAnalysis compares overall statuses under the current and a proposed
// rule configuration.
type ImpactAnalysis struct {
	Evaluated           int                      `json:"evaluated"`
	AffectedSubmissions int                      `json:"affectedSubmissions"`
	BeforeStatusCounts  map[SubmissionStatus]int `json:"beforeStatusCounts"`
	AfterStatusCounts   map[SubmissionStatus]int `json:"afterStatusCounts"`
	SampleAffected      []ImpactSample           `json:"sampleAffected"`
	Before              RuleConfig               `json:"before"`
	After               RuleConfig               `json:"after"`
}
