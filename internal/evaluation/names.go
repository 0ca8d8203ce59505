// internal/evaluation/names.go
package evaluation

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/mwiater/qagate/internal/artifact"
)

var (
	rateTokens = tokenSet("rate", "ratio", "percent", "percentage", "pct", "share")
	// "users" etc. are plural nouns that only ever name a headcount. "total" is
	// not a unit: total_users is a count, total_profit is not.
	countTokens  = tokenSet("count", "num", "number", "cnt", "users", "customers", "orders", "sessions", "views", "pageviews", "clicks", "visits", "quantity", "qty")
	changeTokens = tokenSet("growth", "change", "delta", "diff", "difference", "increase", "decrease")
	baseTokens   = tokenSet("previous", "prev", "last", "base", "baseline")
	statTokens   = tokenSet("avg", "average", "mean", "median", "min", "max", "std", "stddev", "per", "score", "index")

	// copy markers appended to a repeated computation of the same quantity
	copyTokens     = tokenSet("recomputed", "recalculated", "check", "verify", "verified", "copy", "dup", "alt")
	quantityTokens = tokenSet("count", "num", "number", "n", "cnt")
	// single-digit ordinals and v-versions only; years and periods are distinct quantities
	versionToken = regexp.MustCompile(`^(v\d+|[1-9])$`)
)

func tokenSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// tokens splits a field name on separators and camelCase boundaries.
func tokens(name string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

func hasToken(toks []string, set map[string]struct{}) bool {
	for _, t := range toks {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// isRateLike reports whether the field name denotes a rate or percentage.
func isRateLike(name string) bool {
	if strings.Contains(name, "비율") {
		return true
	}
	toks := tokens(name)
	for _, t := range toks {
		if strings.HasSuffix(t, "율") {
			return true
		}
	}
	return hasToken(toks, rateTokens)
}

func isCountLike(name string) bool { return hasToken(tokens(name), countTokens) }

func isChangeMetric(name string) bool { return hasToken(tokens(name), changeTokens) }

func isBaseField(name string) bool { return hasToken(tokens(name), baseTokens) }

// isDerived reports whether the field is a statistic over other values rather
// than an additive quantity.
func isDerived(name string) bool {
	toks := tokens(name)
	return isRateLike(name) || hasToken(toks, changeTokens) || hasToken(toks, statTokens)
}

// totalStem returns the quantity a total field totals: "" for a bare "total",
// "users" for "total_users" or "users_total". ok is false for non-total fields.
func totalStem(name string) (stem []string, ok bool) {
	toks := tokens(name)
	switch {
	case len(toks) == 1 && toks[0] == "total":
		return nil, true
	case len(toks) > 1 && toks[0] == "total":
		return toks[1:], true
	case len(toks) > 1 && toks[len(toks)-1] == "total":
		return toks[:len(toks)-1], true
	}
	return nil, false
}

// hasSuffixTokens reports whether toks ends with suffix and has at least one
// label token before it.
func hasSuffixTokens(toks, suffix []string) bool {
	if len(suffix) == 0 || len(toks) <= len(suffix) {
		return false
	}
	offset := len(toks) - len(suffix)
	for i, s := range suffix {
		if toks[offset+i] != s {
			return false
		}
	}
	return true
}

// quantityKey normalizes a field name so that repeated computations of one
// quantity collide: user_count, users_count, num_users and user_count_2 all map
// to "user". revenue_2023 and revenue_2024 stay apart.
func quantityKey(name string) string {
	toks := tokens(name)
	for len(toks) > 0 {
		last := toks[len(toks)-1]
		if versionToken.MatchString(last) {
			toks = toks[:len(toks)-1]
			continue
		}
		if _, ok := copyTokens[last]; ok {
			toks = toks[:len(toks)-1]
			continue
		}
		break
	}
	kept := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, ok := quantityTokens[t]; ok {
			continue
		}
		kept = append(kept, singular(t))
	}
	sort.Strings(kept)
	return strings.Join(kept, "_")
}

func singular(t string) string {
	if len(t) > 3 && strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss") {
		return strings.TrimSuffix(t, "s")
	}
	return t
}

// numericFields is the finite numeric view over a result set that the
// cross-field rules work against.
type numericFields struct {
	keys   []string
	values map[string]float64
	toks   map[string][]string
}

func newNumericFields(results artifact.Results) numericFields {
	nf := numericFields{
		values: make(map[string]float64),
		toks:   make(map[string][]string),
	}
	results.Each(func(key string, v artifact.Value) {
		f, ok := v.FiniteFloat()
		if !ok {
			return
		}
		nf.keys = append(nf.keys, key)
		nf.values[key] = f
		nf.toks[key] = tokens(key)
	})
	return nf
}

// approxEqual treats two values as equal when they differ by at most 1%
// relative or 1e-9 absolute, whichever is looser.
func approxEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= math.Max(relativeTolerance*scale, absoluteTolerance)
}

const (
	relativeTolerance = 0.01
	absoluteTolerance = 1e-9
)

// ratio returns num/den, or fallback when den is zero.
func ratio(num, den int, fallback float64) float64 {
	if den <= 0 {
		return fallback
	}
	return float64(num) / float64(den)
}
