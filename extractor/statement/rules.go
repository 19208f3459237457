package statement

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Matcher reports the byte offset of the earliest match in text, or -1.
type Matcher interface {
	Index(text string) int
}

// Pattern adapts a regular expression to Matcher.
type Pattern struct {
	*regexp.Regexp
}

func MustPattern(expr string) Pattern {
	return Pattern{Regexp: regexp.MustCompile(expr)}
}

func (p Pattern) Index(text string) int {
	loc := p.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// KeywordSet matches a fixed list of keywords case-insensitively (ASCII
// folding only, so Thai keywords match byte for byte).
type KeywordSet struct {
	keywords []string
	matcher  *ahocorasick.Matcher
}

func NewKeywordSet(keywords ...string) *KeywordSet {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = asciiLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &KeywordSet{
		keywords: lowered,
		matcher:  ahocorasick.NewStringMatcher(lowered),
	}
}

func (k *KeywordSet) Keywords() []string {
	return append([]string(nil), k.keywords...)
}

func (k *KeywordSet) Index(text string) int {
	if k == nil || len(k.keywords) == 0 {
		return -1
	}
	lowered := asciiLower(text)
	hits := k.matcher.Match([]byte(lowered))
	earliest := -1
	for _, hit := range hits {
		if i := strings.Index(lowered, k.keywords[hit]); i >= 0 && (earliest < 0 || i < earliest) {
			earliest = i
		}
	}
	return earliest
}

// Truncate returns the text before the earliest keyword, trimmed.
func (k *KeywordSet) Truncate(text string) string {
	if i := k.Index(text); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}

// asciiLower lowercases A-Z only, keeping byte offsets stable.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// TransitionAction is what a global transition rule does when it matches.
type TransitionAction int

const (
	// EnterTransactions switches to TRANSACTIONS without flushing.
	EnterTransactions TransitionAction = iota
	// EnterRewards flushes the open transaction and switches to REWARDS.
	EnterRewards
	// FooterTruncate truncates a TRANSACTIONS row before the match and
	// parses the prefix before switching to FOOTER. In other states it
	// flushes and switches to FOOTER.
	FooterTruncate
	// FooterAfterLedger flushes and switches to FOOTER only from
	// TRANSACTIONS or REWARDS. Elsewhere the rule is skipped.
	FooterAfterLedger
	// EnterFooter flushes and switches to FOOTER.
	EnterFooter
)

// TransitionRule is one entry of the ordered global transition table.
type TransitionRule struct {
	Name   string
	Match  Matcher
	Action TransitionAction
}

// CompositeRule extracts several header fields from one whole row. Fields
// lists the field set by each capture group, in group order.
type CompositeRule struct {
	Name    string
	Pattern *regexp.Regexp
	Fields  []HeaderField
}

// FieldRule is a single-field header entry. A row is considered only when
// it contains Require (case-sensitive), contains none of Exceptions
// (case-insensitive) and does not match Exclude.
type FieldRule struct {
	Name       string
	Pattern    *regexp.Regexp
	Fields     []HeaderField
	Require    string
	Exceptions []string
	Exclude    *regexp.Regexp
}

func (r FieldRule) applies(text string) bool {
	if r.Require != "" && !strings.Contains(text, r.Require) {
		return false
	}
	if len(r.Exceptions) > 0 {
		lowered := strings.ToLower(text)
		for _, e := range r.Exceptions {
			if strings.Contains(lowered, strings.ToLower(e)) {
				return false
			}
		}
	}
	if r.Exclude != nil && r.Exclude.MatchString(text) {
		return false
	}
	return true
}

// TransactionShape describes one ledger line layout: Prefix matches the
// leading date tokens (one capture group per date), Amount matches
// whitespace followed by the amount in group 1, and Boundary must match at
// the text right after the amount (another transaction's date or the end).
type TransactionShape struct {
	Name     string
	Prefix   *regexp.Regexp
	Amount   *regexp.Regexp
	Boundary *regexp.Regexp
}

// RewardRule maps a keyword row to one reward counter.
type RewardRule struct {
	Pattern *regexp.Regexp
	Field   RewardField
}

// Rules is the complete rule set of one statement layout.
type Rules struct {
	Layout   string
	BankName string
	Currency string

	// Transitions is evaluated in order for every row; first match wins.
	Transitions []TransitionRule
	// FooterKeywords truncates transaction descriptions.
	FooterKeywords *KeywordSet

	Composites []CompositeRule
	Fields     []FieldRule

	NoiseMarkers       []string
	NoiseMinLength     int
	NoiseMinAlnumRatio float64

	PreviousBalance *regexp.Regexp
	// FXRow groups: currency, amount, optional conversion rate.
	FXRow *regexp.Regexp
	// Shapes is tried in order and the first shape with any match is used.
	// A two-date shape must precede the one-date shape or concatenated rows
	// are split at the wrong date.
	Shapes []TransactionShape

	ContinuationSkipPrefixes []string
	ContinuationSkipContains []string

	// RewardRow groups: previous, earned, redeemed, current.
	RewardRow    *regexp.Regexp
	RewardFields []RewardRule
}
