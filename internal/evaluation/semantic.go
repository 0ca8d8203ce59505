// internal/evaluation/semantic.go
package evaluation

import (
	"fmt"
	"regexp"

	"github.com/mwiater/qagate/internal/artifact"
)

// fieldRule flags a single numeric field as logically impossible.
type fieldRule struct {
	name  string
	check func(nf numericFields, key string) (detail string, flagged bool)
}

// queryRule lints a generated query. Query lint is advisory only.
type queryRule struct {
	name  string
	check func(query string) (detail string, flagged bool)
}

// SemanticErrorDetector estimates the fraction of numeric result fields that
// state something impossible or self-contradictory. Fields with nothing
// numeric to inspect never count against the analysis.
type SemanticErrorDetector struct {
	fieldRules []fieldRule
	queryRules []queryRule
}

// NewSemanticErrorDetector returns the detector with its built-in rule list.
func NewSemanticErrorDetector() SemanticErrorDetector {
	return SemanticErrorDetector{
		fieldRules: []fieldRule{
			{name: "percentage_out_of_range", check: percentageOutOfRange},
			{name: "negative_count", check: negativeCount},
			{name: "shrink_beyond_base", check: shrinkBeyondBase},
			{name: "growth_on_zero_base", check: growthOnZeroBase},
			{name: "rate_count_mismatch", check: rateCountMismatch},
			{name: "part_exceeds_total", check: partExceedsTotal},
		},
		queryRules: []queryRule{
			{name: "self_comparison", check: selfComparison},
			{name: "empty_match", check: emptyMatch},
			{name: "implausible_literal", check: implausibleLiteral},
		},
	}
}

// Metric implements Calculator.
func (SemanticErrorDetector) Metric() Metric { return SemanticError }

// Measure implements Calculator.
func (d SemanticErrorDetector) Measure(a artifact.Artifact) Measurement {
	nf := newNumericFields(a.Results())
	m := Measurement{Metric: SemanticError}

	for _, key := range nf.keys {
		var (
			flagged bool
			finding Finding
		)
		ok := guard(func() {
			for _, rule := range d.fieldRules {
				if detail, hit := rule.check(nf, key); hit {
					flagged = true
					finding = Finding{Metric: SemanticError, Field: key, Rule: rule.name, Detail: detail}
					return
				}
			}
		})
		if !ok {
			m.Tally.Excluded++
			continue
		}
		m.Tally.Total++
		if flagged {
			m.Tally.Counted++
			m.Findings = append(m.Findings, finding)
		}
	}

	for i, q := range a.Queries() {
		for _, rule := range d.queryRules {
			if detail, hit := rule.check(q); hit {
				m.Findings = append(m.Findings, Finding{
					Metric:   SemanticError,
					Field:    fmt.Sprintf("query[%d]", i),
					Rule:     rule.name,
					Detail:   detail,
					Advisory: true,
				})
			}
		}
	}

	m.Rate = ratio(m.Tally.Counted, m.Tally.Total, 0)
	return m
}

func percentageOutOfRange(nf numericFields, key string) (string, bool) {
	if !isRateLike(key) || isChangeMetric(key) {
		return "", false
	}
	v := nf.values[key]
	if v < 0 || v > 100 {
		return fmt.Sprintf("rate %v lies outside [0, 100]", v), true
	}
	return "", false
}

func negativeCount(nf numericFields, key string) (string, bool) {
	if !isCountLike(key) || isRateLike(key) || isChangeMetric(key) {
		return "", false
	}
	if v := nf.values[key]; v < 0 {
		return fmt.Sprintf("count %v is negative", v), true
	}
	return "", false
}

func shrinkBeyondBase(nf numericFields, key string) (string, bool) {
	if !isChangeMetric(key) || !isRateLike(key) {
		return "", false
	}
	if v := nf.values[key]; v < -100 {
		return fmt.Sprintf("decline of %v%% removes more than the whole base", -v), true
	}
	return "", false
}

func growthOnZeroBase(nf numericFields, key string) (string, bool) {
	if !isChangeMetric(key) || nf.values[key] == 0 {
		return "", false
	}
	for _, other := range nf.keys {
		if other == key || !isBaseField(other) || isChangeMetric(other) {
			continue
		}
		if nf.values[other] == 0 {
			return fmt.Sprintf("change of %v claimed on zero base %s", nf.values[key], other), true
		}
	}
	return "", false
}

// rateCountMismatch pairs X_rate with X_count and flags the rate when exactly one
// of the two is zero.
func rateCountMismatch(nf numericFields, key string) (string, bool) {
	toks := nf.toks[key]
	if len(toks) < 2 || toks[len(toks)-1] != "rate" {
		return "", false
	}
	stem := toks[:len(toks)-1]
	for _, other := range nf.keys {
		ot := nf.toks[other]
		if len(ot) != len(toks) || ot[len(ot)-1] != "count" || !sameTokens(ot[:len(ot)-1], stem) {
			continue
		}
		rate, count := nf.values[key], nf.values[other]
		switch {
		case count == 0 && rate != 0:
			return fmt.Sprintf("rate %v reported while %s is zero", rate, other), true
		case count != 0 && rate == 0:
			return fmt.Sprintf("rate is zero while %s is %v", other, count), true
		}
	}
	return "", false
}

func partExceedsTotal(nf numericFields, key string) (string, bool) {
	if _, isTotal := totalStem(key); isTotal || isDerived(key) {
		return "", false
	}
	toks := nf.toks[key]
	for _, other := range nf.keys {
		stem, ok := totalStem(other)
		if !ok || len(stem) == 0 || !hasSuffixTokens(toks, stem) {
			continue
		}
		if part, total := nf.values[key], nf.values[other]; part > total && !approxEqual(part, total) {
			return fmt.Sprintf("part %v exceeds %s %v", part, other, total), true
		}
	}
	return "", false
}

func sameTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var (
	// {'user_id': {'$ne': '$user_id'}}
	selfOperatorPattern = regexp.MustCompile(`['"]?(\w+)['"]?\s*:\s*\{\s*['"]\$(?:ne|eq|gt|gte|lt|lte)['"]\s*:\s*['"]\$(\w+)['"]`)
	// user_id != user_id
	selfInfixPattern   = regexp.MustCompile(`\b(\w+)\s*(?:!=|==|<=|>=|<|>)\s*(\w+)\b`)
	emptyMatchPattern  = regexp.MustCompile(`\$match['"]?\s*:\s*\{\s*\}`)
	implausiblePattern = regexp.MustCompile(`\b9{8,}\b`)
)

func selfComparison(query string) (string, bool) {
	for _, p := range []*regexp.Regexp{selfOperatorPattern, selfInfixPattern} {
		for _, m := range p.FindAllStringSubmatch(query, -1) {
			if m[1] == m[2] && !isNumeric(m[1]) {
				return fmt.Sprintf("field %s is compared with itself", m[1]), true
			}
		}
	}
	return "", false
}

func emptyMatch(query string) (string, bool) {
	if emptyMatchPattern.MatchString(query) {
		return "$match stage has no conditions", true
	}
	return "", false
}

func implausibleLiteral(query string) (string, bool) {
	if lit := implausiblePattern.FindString(query); lit != "" {
		return fmt.Sprintf("literal %s looks like a placeholder bound", lit), true
	}
	return "", false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
