package rules

import (
	"math"
	"strconv"

	"clearance/internal/domain"
	"clearance/internal/rawtree"
)

// PatchFromTree reads a rule update from an untrusted body. Fields with the
// wrong type are ignored individually so the rest of the body still applies.
// restrictedCodes keeps string and integral number elements only.
func PatchFromTree(body rawtree.Value) domain.RuleConfigPatch {
	var patch domain.RuleConfigPatch
	if body.Kind() != rawtree.KindObject {
		return patch
	}
	if codes := body.Field("restrictedCodes"); codes.Kind() == rawtree.KindArray {
		list := make([]string, 0, codes.Len())
		for _, item := range codes.Items() {
			if code, ok := codeOf(item); ok {
				list = append(list, code)
			}
		}
		patch.RestrictedCodes = &list
	}
	if enabled, ok := body.Field("ruleEnabled").AsBool(); ok {
		patch.RuleEnabled = &enabled
	}
	return patch
}

func codeOf(v rawtree.Value) (string, bool) {
	if s, ok := v.AsString(); ok {
		return s, true
	}
	f, ok := v.AsNumber()
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || f < 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', 0, 64), true
}
