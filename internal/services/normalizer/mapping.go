package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const firmographics = "bp_parsed_response.Common.Firmographics."

// Mapping lists, per canonical field, the source paths to try in order. The
// defaults understand three shapes: the parsed document-store record
// (bp_parsed_response...), the sample generator record, and a record that is
// already canonical.
type Mapping struct {
	ID                  []string `yaml:"id"`
	Timestamp           []string `yaml:"timestamp"`
	Status              []string `yaml:"status"`
	BrokerName          []string `yaml:"broker_name"`
	BrokerEmail         []string `yaml:"broker_email"`
	InsuredName         []string `yaml:"insured_name"`
	IndustryCode        []string `yaml:"industry_code"`
	IndustryDescription []string `yaml:"industry_description"`
	Street              []string `yaml:"street"`
	City                []string `yaml:"city"`
	State               []string `yaml:"state"`
	Zip                 []string `yaml:"zip"`
	YearsInBusiness     []string `yaml:"years_in_business"`
	EmployeeCount       []string `yaml:"employee_count"`
	CoverageLines       []string `yaml:"coverage_lines"`
	EffectiveDate       []string `yaml:"effective_date"`
	ExpirationDate      []string `yaml:"expiration_date"`
	Documents           []string `yaml:"documents"`

	// Relative to one document element.
	DocumentID     []string `yaml:"document_id"`
	DocumentName   []string `yaml:"document_name"`
	DocumentType   []string `yaml:"document_type"`
	DocumentStatus []string `yaml:"document_status"`
	DocumentSize   []string `yaml:"document_size"`

	FinancialFactors []string `yaml:"financial_factors"`
	FinancialScore   []string `yaml:"financial_score"`
}

func DefaultMapping() Mapping {
	return Mapping{
		ID:        []string{"tx_id", "submission.id", "submissionId", "id"},
		Timestamp: []string{"created_on", "submission.created_at", "timestamp", "created_at", "_store.createdAt"},
		Status:    []string{"submission.status", "status"},
		BrokerName: []string{
			"bp_parsed_response.Common.Broker Details.broker_name.value",
			"broker.company_name",
			"broker.name",
		},
		BrokerEmail: []string{
			"bp_parsed_response.Common.Broker Details.broker_email.value",
			"broker.email_address",
			"broker.email",
		},
		InsuredName:         []string{firmographics + "company_name.value", "insured.legal_name", "insured.name"},
		IndustryCode:        []string{firmographics + "primary_naics_2017[0].code", "insured.sic_code", "insured.industryCode", "insured.industry.code"},
		IndustryDescription: []string{firmographics + "primary_naics_2017[0].desc", "insured.industry_description", "insured.industryDescription", "insured.industry.description"},
		Street:              []string{firmographics + "address_1.value", "insured.address.line1", "insured.address.street"},
		City:                []string{firmographics + "city.value", "insured.address.city"},
		State:               []string{firmographics + "state.value", "insured.address.state"},
		Zip:                 []string{firmographics + "postal_code.value", "insured.address.postal_code", "insured.address.zip"},
		YearsInBusiness:     []string{firmographics + "years_in_business.value", "insured.years_in_business", "insured.yearsInBusiness"},
		EmployeeCount:       []string{firmographics + "total_full_time_employees.value", "insured.employee_count", "insured.employeeCount"},
		CoverageLines: []string{
			"bp_parsed_response.Common.Limits and Coverages.normalized_coverage",
			"submission.coverage_lines",
			"coverage.lines",
		},
		EffectiveDate: []string{
			"bp_parsed_response.Common.Product Details.policy_inception_date.value",
			"submission.effective_date",
			"coverage.effectiveDate",
		},
		ExpirationDate: []string{
			"bp_parsed_response.Common.Product Details.end_date.value",
			"submission.expiration_date",
			"coverage.expirationDate",
		},
		Documents: []string{"documents"},

		DocumentID:     []string{"id", "doc_id", "docId"},
		DocumentName:   []string{"name", "file_name"},
		DocumentType:   []string{"type", "doc_type", "category"},
		DocumentStatus: []string{"status"},
		DocumentSize:   []string{"sizeKb", "size_kb", "size"},

		FinancialFactors: []string{"risk_assessment.factors", "riskAssessment.factors"},
		FinancialScore:   []string{"riskAssessment.financialScore", "financial_score"},
	}
}

// LoadMapping reads a YAML mapping file. Fields present in the file replace
// the corresponding default candidate list; absent fields keep the default.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping file: %w", err)
	}
	return ParseMapping(data)
}

func ParseMapping(data []byte) (Mapping, error) {
	var override Mapping
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&override); err != nil && !errors.Is(err, io.EOF) {
		return Mapping{}, fmt.Errorf("decode mapping: %w", err)
	}
	return DefaultMapping().merge(override), nil
}

func (m Mapping) merge(o Mapping) Mapping {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&m.ID, o.ID)
	pick(&m.Timestamp, o.Timestamp)
	pick(&m.Status, o.Status)
	pick(&m.BrokerName, o.BrokerName)
	pick(&m.BrokerEmail, o.BrokerEmail)
	pick(&m.InsuredName, o.InsuredName)
	pick(&m.IndustryCode, o.IndustryCode)
	pick(&m.IndustryDescription, o.IndustryDescription)
	pick(&m.Street, o.Street)
	pick(&m.City, o.City)
	pick(&m.State, o.State)
	pick(&m.Zip, o.Zip)
	pick(&m.YearsInBusiness, o.YearsInBusiness)
	pick(&m.EmployeeCount, o.EmployeeCount)
	pick(&m.CoverageLines, o.CoverageLines)
	pick(&m.EffectiveDate, o.EffectiveDate)
	pick(&m.ExpirationDate, o.ExpirationDate)
	pick(&m.Documents, o.Documents)
	pick(&m.DocumentID, o.DocumentID)
	pick(&m.DocumentName, o.DocumentName)
	pick(&m.DocumentType, o.DocumentType)
	pick(&m.DocumentStatus, o.DocumentStatus)
	pick(&m.DocumentSize, o.DocumentSize)
	pick(&m.FinancialFactors, o.FinancialFactors)
	pick(&m.FinancialScore, o.FinancialScore)
	return m
}
