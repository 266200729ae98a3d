// Package search implements the search federation: an ordered
// primary->secondary->tertiary->last-resort chain of providers behind
// one interface, with operator stripping/reapplication and sport/gender
// exclusion filtering. A stage that refuses (budget, circuit, vendor
// outage) falls through to the next; when every stage refuses the
// federation returns an empty list, never an error.
package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Result is one search hit.
type Result struct {
	Title       string
	URL         string
	Snippet     string
	SourceLabel string
}

// Provider is the common interface every search backend implements.
type Provider interface {
	// Name identifies the provider for logging and source labeling.
	Name() string
	// Search executes a raw query (operators already stripped per
	// SupportsOperators) and returns up to limit results.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	// SupportsOperators reports whether this provider can parse the
	// query operators this federation knows about (currently just
	// negative-term exclusion, e.g. `-basketball`). Providers that
	// can't must receive the stripped query; the federation re-applies
	// the exclusion as a post-fetch filter in that case.
	SupportsOperators() bool
}

// Stage pairs a provider with its federation role, used only for logging
// and status reporting.
type Stage struct {
	Role     string // "primary", "secondary", "tertiary", "last_resort"
	Provider Provider
}

// Federation runs providers in order until one returns a non-empty,
// non-error result, or all refuse.
type Federation struct {
	stages          []Stage
	exclusionWords  []string
	log             zerolog.Logger
}

// DefaultExclusionVocab drops the other codes of football and women's
// competitions this pipeline doesn't trade.
var DefaultExclusionVocab = []string{
	"rugby", "futsal", "beach soccer", "american football", "nfl",
	"australian rules", "gaelic",
	"women", "women's", "femminile", "feminine", "frauen", "femenina",
	"u17", "u19", "u21", "u23", "primavera", "youth",
}

// NewFederation builds the ordered chain. exclusionVocab holds the
// sport/gender terms that make a result a hard exclusion (e.g. "rugby",
// "futsal", "women").
func NewFederation(stages []Stage, exclusionVocab []string, log zerolog.Logger) *Federation {
	return &Federation{stages: stages, exclusionWords: exclusionVocab, log: log}
}

var operatorTerm = regexp.MustCompile(`-\S+`)

// splitOperators extracts negative-term operators from a raw query,
// returning the stripped query (safe for any provider) and the list of
// excluded terms (without the leading '-') for post-fetch filtering.
func splitOperators(query string) (stripped string, excluded []string) {
	matches := operatorTerm.FindAllString(query, -1)
	stripped = strings.TrimSpace(operatorTerm.ReplaceAllString(query, ""))
	stripped = strings.Join(strings.Fields(stripped), " ")
	for _, m := range matches {
		term := strings.TrimPrefix(m, "-")
		if term != "" {
			excluded = append(excluded, term)
		}
	}
	return stripped, excluded
}

// Search runs the ordered chain, returning an empty (never nil-typed
// error) slice if every stage refuses.
func (f *Federation) Search(ctx context.Context, query string, limit int) []Result {
	stripped, excluded := splitOperators(query)

	for _, stage := range f.stages {
		q := stripped
		if stage.Provider.SupportsOperators() {
			q = query
		}

		results, err := stage.Provider.Search(ctx, q, limit)
		if err != nil {
			f.log.Debug().Str("provider", stage.Provider.Name()).Str("role", stage.Role).Err(err).Msg("search stage refused")
			continue
		}
		if len(results) == 0 {
			continue
		}

		filtered := f.applyExclusions(results, excluded)
		if len(filtered) == 0 {
			continue
		}
		return filtered
	}

	return []Result{}
}

// applyExclusions drops results matching the configured sport/gender
// vocabulary, plus any operator-encoded exclusions the dispatched
// provider couldn't honor natively. Uses word-boundary matching for
// short terms (<=4 runes) to avoid over-matching substrings.
func (f *Federation) applyExclusions(results []Result, operatorExclusions []string) []Result {
	terms := make([]string, 0, len(f.exclusionWords)+len(operatorExclusions))
	terms = append(terms, f.exclusionWords...)
	terms = append(terms, operatorExclusions...)
	if len(terms) == 0 {
		return results
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		haystack := strings.ToLower(r.Title + " " + r.Snippet)
		if matchesAny(haystack, terms) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesAny(haystack string, terms []string) bool {
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if len(t) <= 4 {
			if wordBoundaryMatch(haystack, t) {
				return true
			}
			continue
		}
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func wordBoundaryMatch(haystack, term string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return re.MatchString(haystack)
}
