package ai

// normalizeDeepDive fills the deep-dive shape with typed defaults:
// every field defaults to "Unknown" so downstream formatting can
// cheaply check for "not provided".
func normalizeDeepDive(m map[string]any) *DeepDiveResult {
	return &DeepDiveResult{
		InternalCrisis:    safeString(m, "internal_crisis", "Unknown"),
		TurnoverRisk:      safeString(m, "turnover_risk", "Unknown"),
		RefereeIntel:      safeString(m, "referee_intel", "Unknown"),
		BiscottoPotential: safeString(m, "biscotto_potential", "Unknown"),
		InjuryImpact:      safeString(m, "injury_impact", "None reported"),
		BTTSImpact:        safeString(m, "btts_impact", "Unknown"),
		MotivationHome:    safeString(m, "motivation_home", "Unknown"),
		MotivationAway:    safeString(m, "motivation_away", "Unknown"),
		TableContext:      safeString(m, "table_context", "Unknown"),
	}
}

func normalizeVerification(m map[string]any) *VerificationFacts {
	return &VerificationFacts{
		Verified:            safeBool(m, "verified", false),
		VerificationStatus:  safeString(m, "verification_status", "UNVERIFIED"),
		ConfidenceLevel:     safeString(m, "confidence_level", "LOW"),
		VerificationSources: safeStringList(m, "verification_sources"),
		AdditionalContext:   safeString(m, "additional_context", ""),
		BettingImpact:       safeString(m, "betting_impact", "Unknown"),
		IsCurrent:           safeBool(m, "is_current", true),
		Notes:               safeString(m, "notes", ""),
	}
}

func normalizeConfirmation(m map[string]any) *ConfirmationFacts {
	return &ConfirmationFacts{
		BiscottoConfirmed:   safeBool(m, "biscotto_confirmed", false),
		ConfidenceBoost:     safeInt(m, "confidence_boost", 0, 0, 30),
		HomeTeamObjective:   safeString(m, "home_team_objective", "Unknown"),
		AwayTeamObjective:   safeString(m, "away_team_objective", "Unknown"),
		MutualBenefitFound:  safeBool(m, "mutual_benefit_found", false),
		MutualBenefitReason: safeString(m, "mutual_benefit_reason", "No clear mutual benefit"),
		H2HPattern:          safeString(m, "h2h_pattern", "No data"),
		ClubRelationship:    safeString(m, "club_relationship", "None found"),
		ManagerHints:        safeString(m, "manager_hints", "None found"),
		MarketSentiment:     safeString(m, "market_sentiment", "Unknown"),
		AdditionalContext:   safeString(m, "additional_context", ""),
		FinalRecommendation: safeString(m, "final_recommendation", "MONITOR LIVE"),
	}
}

func normalizeBettingStats(m map[string]any) *BettingStatsResult {
	return &BettingStatsResult{
		AvgCornersHome:            safeFloat(m, "avg_corners_home", 0),
		AvgCornersAway:            safeFloat(m, "avg_corners_away", 0),
		AvgCornersTotal:           safeFloat(m, "avg_corners_total", 0),
		AvgCardsHome:              safeFloat(m, "avg_cards_home", 0),
		AvgCardsAway:              safeFloat(m, "avg_cards_away", 0),
		AvgCardsTotal:             safeFloat(m, "avg_cards_total", 0),
		RecentCornersTrend:        safeString(m, "recent_corners_trend", "Unknown"),
		RecentCardsTrend:          safeString(m, "recent_cards_trend", "Unknown"),
		H2HCornersAvg:             safeFloat(m, "h2h_corners_avg", 0),
		H2HCardsAvg:               safeFloat(m, "h2h_cards_avg", 0),
		OverCornersRecommendation: safeString(m, "over_corners_recommendation", "Unknown"),
		OverCardsRecommendation:   safeString(m, "over_cards_recommendation", "Unknown"),
		ConfidenceLevel:           safeString(m, "confidence_level", "LOW"),
		DataFreshness:             safeString(m, "data_freshness", "Unknown"),
		AdditionalContext:         safeString(m, "additional_context", ""),
	}
}

func normalizeEnrichedContext(m map[string]any) *EnrichedContext {
	return &EnrichedContext{
		HomeForm:          safeString(m, "home_form", "Unknown"),
		HomeFormTrend:     safeString(m, "home_form_trend", "Unknown"),
		AwayForm:          safeString(m, "away_form", "Unknown"),
		AwayFormTrend:     safeString(m, "away_form_trend", "Unknown"),
		HomeRecentNews:    safeString(m, "home_recent_news", "Unknown"),
		AwayRecentNews:    safeString(m, "away_recent_news", "Unknown"),
		H2HRecent:         safeString(m, "h2h_recent", "Unknown"),
		H2HGoalsPattern:   safeString(m, "h2h_goals_pattern", "Unknown"),
		MatchImportance:   safeString(m, "match_importance", "Unknown"),
		HomeMotivation:    safeString(m, "home_motivation", "Unknown"),
		AwayMotivation:    safeString(m, "away_motivation", "Unknown"),
		WeatherForecast:   safeString(m, "weather_forecast", "Unknown"),
		WeatherImpact:     safeString(m, "weather_impact", "Unknown"),
		AdditionalContext: safeString(m, "additional_context", ""),
		DataFreshness:     safeString(m, "data_freshness", "Unknown"),
	}
}
