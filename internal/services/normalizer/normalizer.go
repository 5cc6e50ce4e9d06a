package normalizer

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"clearance/internal/domain"
	"clearance/internal/ports"
	"clearance/internal/rawtree"
)

const unknown = "Unknown"

// Normalizer turns raw records of any shape into canonical submissions. It
// never fails: every field falls back to its default.
type Normalizer struct {
	mapping Mapping
	clock   ports.Clock
}

func New(mapping Mapping, clock ports.Clock) *Normalizer {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Normalizer{mapping: mapping, clock: clock}
}

// Normalize maps raw onto a Submission. A non-blank idHint replaces whatever
// id the record carries.
func (n *Normalizer) Normalize(raw rawtree.Value, idHint string) domain.Submission {
	m := n.mapping
	sub := domain.Submission{
		ID:        text(raw, m.ID, unknown),
		Timestamp: n.date(raw, m.Timestamp, ""),
		Status:    n.status(raw, m.Status),
		Broker: domain.Broker{
			Name:  text(raw, m.BrokerName, unknown),
			Email: strings.ToLower(text(raw, m.BrokerEmail, "")),
		},
		Insured: domain.Insured{
			Name:                text(raw, m.InsuredName, unknown),
			IndustryCode:        text(raw, m.IndustryCode, unknown),
			IndustryDescription: text(raw, m.IndustryDescription, unknown),
			Address: domain.Address{
				Street: text(raw, m.Street, ""),
				City:   text(raw, m.City, ""),
				State:  text(raw, m.State, ""),
				Zip:    text(raw, m.Zip, ""),
			},
			YearsInBusiness: n.count(raw, m.YearsInBusiness),
			EmployeeCount:   n.count(raw, m.EmployeeCount),
		},
		Coverage: domain.Coverage{
			Lines:          n.lines(raw, m.CoverageLines),
			EffectiveDate:  n.date(raw, m.EffectiveDate, ""),
			ExpirationDate: n.date(raw, m.ExpirationDate, ""),
		},
		Documents:        n.documents(raw),
		ComplianceChecks: []domain.ComplianceCheck{},
	}
	if sub.Timestamp == "" {
		sub.Timestamp = n.clock.Now().UTC().Format(time.RFC3339)
	}
	if hint := strings.TrimSpace(idHint); hint != "" {
		sub.ID = hint
	}
	return sub
}

// FinancialSignal extracts an external financial risk score from raw, if the
// record carries one.
func (n *Normalizer) FinancialSignal(raw rawtree.Value) (domain.FinancialSignal, bool) {
	for _, path := range n.mapping.FinancialFactors {
		factors, ok := rawtree.Lookup(raw, path)
		if !ok || factors.Kind() != rawtree.KindArray {
			continue
		}
		for _, f := range factors.Items() {
			kind, _ := f.Field("type").AsString()
			if !strings.EqualFold(strings.TrimSpace(kind), "financial") {
				continue
			}
			if score, ok := number(f.Field("score")); ok {
				return domain.FinancialSignal{Score: score, Source: path}, true
			}
		}
	}
	for _, path := range n.mapping.FinancialScore {
		v, ok := rawtree.Lookup(raw, path)
		if !ok {
			continue
		}
		if score, ok := number(v); ok {
			return domain.FinancialSignal{Score: score, Source: path}, true
		}
	}
	return domain.FinancialSignal{}, false
}

// text returns the first candidate that renders as a non-blank scalar.
func text(raw rawtree.Value, paths []string, def string) string {
	for _, p := range paths {
		v, ok := rawtree.Lookup(raw, p)
		if !ok {
			continue
		}
		if s, ok := v.Text(); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return def
}

// date passes strings through untouched and renders native times as RFC 3339.
func (n *Normalizer) date(raw rawtree.Value, paths []string, def string) string {
	for _, p := range paths {
		v, ok := rawtree.Lookup(raw, p)
		if !ok {
			continue
		}
		switch v.Kind() {
		case rawtree.KindString:
			if s, _ := v.AsString(); strings.TrimSpace(s) != "" {
				return s
			}
		case rawtree.KindTime:
			t, _ := v.AsTime()
			return t.UTC().Format(time.RFC3339)
		}
	}
	return def
}

func (n *Normalizer) status(raw rawtree.Value, paths []string) domain.SubmissionStatus {
	for _, p := range paths {
		v, ok := rawtree.Lookup(raw, p)
		if !ok {
			continue
		}
		s, _ := v.AsString()
		if st, ok := ParseSubmissionStatus(s); ok {
			return st
		}
	}
	return domain.StatusNew
}

func (n *Normalizer) count(raw rawtree.Value, paths []string) int {
	for _, p := range paths {
		v, ok := rawtree.Lookup(raw, p)
		if !ok {
			continue
		}
		if f, ok := number(v); ok {
			return clampInt(f)
		}
	}
	return 0
}

func (n *Normalizer) lines(raw rawtree.Value, paths []string) []string {
	out := []string{}
	v, ok := firstOfKind(raw, paths, rawtree.KindString, rawtree.KindArray)
	if !ok {
		return out
	}
	if v.Kind() == rawtree.KindString {
		if s, _ := v.AsString(); strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
		return out
	}
	for _, item := range v.Items() {
		if s, ok := item.AsString(); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func (n *Normalizer) documents(raw rawtree.Value) []domain.Document {
	out := []domain.Document{}
	v, ok := firstOfKind(raw, n.mapping.Documents, rawtree.KindArray)
	if !ok {
		return out
	}
	m := n.mapping
	for i, item := range v.Items() {
		if item.Kind() != rawtree.KindObject {
			continue
		}
		doc := domain.Document{
			ID:     text(item, m.DocumentID, fmt.Sprintf("DOC-%d", i+1)),
			Name:   text(item, m.DocumentName, unknown),
			Type:   text(item, m.DocumentType, unknown),
			Status: domain.DocumentPending,
			SizeKb: n.count(item, m.DocumentSize),
		}
		if st, ok := ParseDocumentStatus(text(item, m.DocumentStatus, "")); ok {
			doc.Status = st
		}
		out = append(out, doc)
	}
	return out
}

// firstOfKind returns the first candidate whose kind is one of kinds.
func firstOfKind(raw rawtree.Value, paths []string, kinds ...rawtree.Kind) (rawtree.Value, bool) {
	for _, p := range paths {
		v, ok := rawtree.Lookup(raw, p)
		if ok && slices.Contains(kinds, v.Kind()) {
			return v, true
		}
	}
	return rawtree.Value{}, false
}

// ParseSubmissionStatus matches s against the canonical statuses ignoring
// case, spaces, dashes and underscores.
func ParseSubmissionStatus(s string) (domain.SubmissionStatus, bool) {
	key := foldKey(s)
	for _, st := range domain.SubmissionStatuses {
		if foldKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

func ParseDocumentStatus(s string) (domain.DocumentStatus, bool) {
	key := foldKey(s)
	for _, st := range domain.DocumentStatuses {
		if foldKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

func foldKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// number accepts numbers and numeric strings ("1,200" included).
func number(v rawtree.Value) (float64, bool) {
	if f, ok := v.AsNumber(); ok {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	if s, ok := v.AsString(); ok {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func clampInt(f float64) int {
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}
