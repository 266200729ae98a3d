// Package ai implements the intelligence router: a primary+fallback
// pair of AI backends behind one interface, with optional web-search
// pre-enrichment, tolerant JSON parsing, and typed-default
// normalization. Each backend is a plain HTTP+JSON client routed
// through the same provider-federation plumbing as every other vendor
// call.
package ai

import "context"

// DeepDiveResult is the normalized deep-dive shape.
type DeepDiveResult struct {
	InternalCrisis    string
	TurnoverRisk      string
	RefereeIntel      string
	BiscottoPotential string
	InjuryImpact      string
	BTTSImpact        string
	MotivationHome    string
	MotivationAway    string
	TableContext      string
}

// VerificationFacts is the normalized news-verification shape.
type VerificationFacts struct {
	Verified             bool
	VerificationStatus   string
	ConfidenceLevel      string
	VerificationSources  []string
	AdditionalContext    string
	BettingImpact        string
	IsCurrent            bool
	Notes                string
}

// ConfirmationFacts is the normalized collusion-confirmation shape.
type ConfirmationFacts struct {
	BiscottoConfirmed   bool
	ConfidenceBoost     int
	HomeTeamObjective   string
	AwayTeamObjective   string
	MutualBenefitFound  bool
	MutualBenefitReason string
	H2HPattern          string
	ClubRelationship    string
	ManagerHints        string
	MarketSentiment     string
	AdditionalContext   string
	FinalRecommendation string
}

// BettingStatsResult is the normalized corners/cards stats shape.
type BettingStatsResult struct {
	AvgCornersHome            float64
	AvgCornersAway            float64
	AvgCornersTotal           float64
	AvgCardsHome              float64
	AvgCardsAway              float64
	AvgCardsTotal             float64
	RecentCornersTrend        string
	RecentCardsTrend          string
	H2HCornersAvg             float64
	H2HCardsAvg               float64
	OverCornersRecommendation string
	OverCardsRecommendation   string
	ConfidenceLevel           string
	DataFreshness             string
	AdditionalContext         string
}

// EnrichedContext is the normalized match-context shape.
type EnrichedContext struct {
	HomeForm          string
	HomeFormTrend     string
	AwayForm          string
	AwayFormTrend     string
	HomeRecentNews    string
	AwayRecentNews    string
	H2HRecent         string
	H2HGoalsPattern   string
	MatchImportance   string
	HomeMotivation    string
	AwayMotivation    string
	WeatherForecast   string
	WeatherImpact     string
	AdditionalContext string
	DataFreshness     string
}

// MatchIdentity is the minimal match reference every operation needs.
type MatchIdentity struct {
	Home   string
	Away   string
	Date   string // YYYY-MM-DD
	League string
}

// RawProvider is the vendor-specific half of a backend: given an already
// fully-assembled prompt (static preamble + dynamic payload + any
// [WEB SEARCH RESULTS] block), it returns the raw chat-completion text.
// Prompt assembly, search pre-enrichment, fallback ordering, JSON
// extraction, and normalization are all federation-level concerns owned
// by Router, not by individual providers, so DeepSeek and Perplexity
// share one JSON-tolerant parse instead of each rolling their own.
type RawProvider interface {
	Name() string
	Call(ctx context.Context, prompt string) (string, error)
}
