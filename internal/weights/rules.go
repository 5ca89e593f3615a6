package weights

import (
	"fmt"
	"math"
	"regexp"
)

// DefaultKey is the config key holding the fallback weight.
const DefaultKey = "default"

// DefaultWeight applies when the config does not declare a default.
const DefaultWeight = 1.0

// Rule maps a prefix-anchored pattern to a weight.
type Rule struct {
	Pattern string
	Weight  float64

	re *regexp.Regexp
}

// NewRule compiles pattern for prefix matching.
func NewRule(pattern string, weight float64) (Rule, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return Rule{}, fmt.Errorf("weight for %q must be a finite non-negative number, got %v", pattern, weight)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return Rule{Pattern: pattern, Weight: weight, re: re}, nil
}

// Matches reports whether the pattern matches a prefix of topic.
func (r Rule) Matches(topic string) bool {
	return r.re != nil && r.re.MatchString(topic)
}

// Rules is an immutable, ordered weight rule set.
// The zero value has no rules and the default weight of 1.0.
type Rules struct {
	rules  []Rule
	def    float64
	hasDef bool
}

// New builds a rule set from already compiled rules.
func New(def float64, rules ...Rule) Rules {
	return Rules{
		rules:  append([]Rule(nil), rules...),
		def:    def,
		hasDef: true,
	}
}

// Match returns the weight of the first rule whose pattern matches a prefix
// of topic, or the default weight if none does.
func (rs Rules) Match(topic string) float64 {
	for _, r := range rs.rules {
		if r.Matches(topic) {
			return r.Weight
		}
	}
	return rs.Default()
}

// Default returns the fallback weight.
func (rs Rules) Default() float64 {
	if !rs.hasDef {
		return DefaultWeight
	}
	return rs.def
}

// Rules returns a copy of the ordered rules.
func (rs Rules) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Len returns the number of rules, excluding the default.
func (rs Rules) Len() int {
	return len(rs.rules)
}

// Map returns the rule set as a pattern → weight map, including the default.
// Used for reporting the configuration; ordering is lost.
func (rs Rules) Map() map[string]float64 {
	m := make(map[string]float64, len(rs.rules)+1)
	for _, r := range rs.rules {
		m[r.Pattern] = r.Weight
	}
	m[DefaultKey] = rs.Default()
	return m
}
