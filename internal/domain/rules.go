package domain

import (
	"slices"
	"sort"
	"strings"
)

// RuleConfig is one immutable generation of the industry-restriction rule.
// Values handed out by the rule store are copies; mutate freely.
type RuleConfig struct {
	RestrictedCodes []string `json:"restrictedCodes"`
	RuleEnabled     bool     `json:"ruleEnabled"`
	Generation      uint64   `json:"generation"`
}

// Restricts reports whether code is on the restricted list. The enable flag
// is not consulted.
func (c RuleConfig) Restricts(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	return slices.ContainsFunc(c.RestrictedCodes, func(r string) bool {
		return strings.TrimSpace(r) == code
	})
}

// Clone returns a deep copy.
func (c RuleConfig) Clone() RuleConfig {
	out := c
	out.RestrictedCodes = append([]string(nil), c.RestrictedCodes...)
	if out.RestrictedCodes == nil {
		out.RestrictedCodes = []string{}
	}
	return out
}

// RuleConfigPatch carries the fields a caller wants to replace. Nil fields
// are left untouched.
type RuleConfigPatch struct {
	RestrictedCodes *[]string
	RuleEnabled     *bool
}

func (p RuleConfigPatch) Empty() bool {
	return p.RestrictedCodes == nil && p.RuleEnabled == nil
}

// Apply returns the config that results from applying p to c. The generation
// is not bumped here; that belongs to the owner of the config.
func (p RuleConfigPatch) Apply(c RuleConfig) RuleConfig {
	out := c.Clone()
	if p.RestrictedCodes != nil {
		out.RestrictedCodes = CanonicalCodes(*p.RestrictedCodes)
	}
	if p.RuleEnabled != nil {
		out.RuleEnabled = *p.RuleEnabled
	}
	return out
}

// CanonicalCodes trims, de-duplicates and sorts industry codes, dropping
// blanks. The result is never nil.
func CanonicalCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
