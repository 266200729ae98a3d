package ai

import (
	"fmt"
	"strings"
)

// These five preambles are the static halves of each operation's
// prompt. Every per-match variable lives in the dynamic payload built
// alongside each preamble below; changing a match never mutates the
// preamble text itself, which keeps upstream prompt caching effective.
const (
	deepDivePreamble = `You are a football betting intelligence analyst. Given a match and any web search context provided, return ONLY a JSON object with these fields: internal_crisis, turnover_risk, referee_intel, biscotto_potential, injury_impact, btts_impact, motivation_home, motivation_away, table_context. Use "Unknown" for any field you cannot determine. Do not include any text outside the JSON object.`

	bettingStatsPreamble = `You are a football statistics analyst. Given a match and any web search context provided, return ONLY a JSON object with these fields: avg_corners_home, avg_corners_away, avg_corners_total, avg_cards_home, avg_cards_away, avg_cards_total, recent_corners_trend, recent_cards_trend, h2h_corners_avg, h2h_cards_avg, over_corners_recommendation, over_cards_recommendation, confidence_level, data_freshness. Use 0 for unknown numeric fields and "Unknown" for unknown text fields. Do not include any text outside the JSON object.`

	newsVerificationPreamble = `You are a football news verification analyst. Given a news item and any web search context provided, determine whether it is corroborated by independent sources. Return ONLY a JSON object with these fields: verified, verification_status (CONFIRMED/REJECTED/UNVERIFIED), confidence_level, verification_sources (array), additional_context, betting_impact, is_current, notes. Do not include any text outside the JSON object.`

	biscottoConfirmationPreamble = `You are investigating a potential uncompetitive match ("biscotto") in football, where the draw odds pattern is anomalous. Given the match context and any web search context provided, assess whether an independent source corroborates a mutual-benefit draw scenario. Return ONLY a JSON object with these fields: biscotto_confirmed, confidence_boost (0-30), home_team_objective, away_team_objective, mutual_benefit_found, mutual_benefit_reason, h2h_pattern, club_relationship, manager_hints, market_sentiment, additional_context, final_recommendation. Do not include any text outside the JSON object.`

	matchEnrichmentPreamble = `You are a football match context analyst. Given a match and any web search context provided, return ONLY a JSON object with these fields: home_form, home_form_trend, away_form, away_form_trend, home_recent_news, away_recent_news, h2h_recent, h2h_goals_pattern, match_importance, home_motivation, away_motivation, weather_forecast, weather_impact, additional_context, data_freshness. Use "Unknown" for any field you cannot determine. Do not include any text outside the JSON object.`
)

// assemblePrompt joins the static preamble with the dynamic payload and
// injects the web-search block, stripping vendor-specific search
// branding left over in any preamble text.
func assemblePrompt(preamble, payload, webBlock string) string {
	cleaned := stripVendorBranding(preamble)
	var b strings.Builder
	if webBlock != "" {
		b.WriteString(webBlock)
		b.WriteString("\n\n")
		b.WriteString("IMPORTANT: Analyze the information from the web search results above. Base your analysis on these sources and your training knowledge.\n\n")
	} else {
		b.WriteString("NOTE: No recent web search results available. Base your analysis on your training knowledge only. Be conservative in your assessments when lacking current data.\n\n")
	}
	b.WriteString(cleaned)
	b.WriteString("\n\n")
	b.WriteString(payload)
	return b.String()
}

func stripVendorBranding(s string) string {
	replacer := strings.NewReplacer(
		"Google Search", "web search",
		"google search", "web search",
		"search grounding", "provided sources",
		"Search Grounding", "provided sources",
	)
	return replacer.Replace(s)
}

func deepDivePayload(m MatchIdentity, referee string, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match: %s vs %s\n", m.Home, m.Away)
	if m.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", m.Date)
	}
	if referee != "" {
		fmt.Fprintf(&b, "Referee: %s\n", referee)
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing players: %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}

func bettingStatsPayload(m MatchIdentity) string {
	return fmt.Sprintf("Match: %s vs %s\nDate: %s\nLeague: %s\n", m.Home, m.Away, m.Date, m.League)
}

func newsVerificationPayload(title, snippet, team, source, matchContext string) string {
	return fmt.Sprintf("News title: %s\nNews snippet: %s\nTeam: %s\nSource: %s\nMatch context: %s\n", title, snippet, team, source, matchContext)
}

func biscottoConfirmationPayload(m MatchIdentity, drawOdds, impliedProb float64, oddsPattern, seasonContext string, factors []string) string {
	return fmt.Sprintf(
		"Match: %s vs %s\nLeague: %s\nDate: %s\nDraw odds: %.2f\nImplied probability: %.3f\nOdds pattern: %s\nSeason context: %s\nAlready-detected factors: %s\n",
		m.Home, m.Away, m.League, m.Date, drawOdds, impliedProb, oddsPattern, seasonContext, strings.Join(factors, ", "),
	)
}

func matchEnrichmentPayload(m MatchIdentity, existingContext string) string {
	return fmt.Sprintf("Match: %s vs %s\nLeague: %s\nDate: %s\nExisting context: %s\n", m.Home, m.Away, m.League, m.Date, existingContext)
}

// formatWebResults renders search results as the bounded
// `[WEB SEARCH RESULTS]` excerpt injected ahead of the preamble.
func formatWebResults(results []WebResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[WEB SEARCH RESULTS]\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. Title: %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", r.Snippet)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// WebResult decouples this package from the concrete search.Result type
// so ai doesn't import search directly; the caller (wiring code in
// cmd/earlybird) adapts search.Result -> ai.WebResult.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}
