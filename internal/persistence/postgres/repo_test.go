package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicosss/earlybird/internal/model"
)

func newMockRepo(t *testing.T) (*repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &repo{db: sqlx.NewDb(db, "postgres"), timeout: time.Second}, mock
}

func TestUpsertMatch(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO matches").
		WithArgs("m1", "serie_a", "Roma", "Lazio", sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.UpsertMatch(context.Background(), model.Match{
		ID: "m1", LeagueKey: "serie_a", Home: "Roma", Away: "Lazio",
		StartInstant: time.Now().Add(24 * time.Hour),
		CurrentOdds:  model.Odds{Home: 2.10, Draw: 3.30, Away: 3.60},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendOddsSnapshot_ConflictIsIdempotent(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO odds_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 0)) // DO NOTHING hit

	err := r.AppendOddsSnapshot(context.Background(), model.OddsSnapshot{
		MatchID:    "m1",
		CapturedAt: time.Now(),
		Odds:       model.Odds{Home: 2.05},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOddsHistory_OrdersOldestFirst(t *testing.T) {
	r, mock := newMockRepo(t)

	older := time.Now().UTC().Add(-10 * time.Minute)
	newer := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"match_id", "captured_at", "home", "draw", "away", "over25", "under25", "btts"}).
		AddRow("m1", older, 2.10, 3.30, 3.60, nil, nil, nil).
		AddRow("m1", newer, 1.95, 3.40, 3.80, nil, nil, nil)

	mock.ExpectQuery("SELECT match_id, captured_at").
		WithArgs("m1", sqlmock.AnyArg()).
		WillReturnRows(rows)

	history, err := r.ReadOddsHistory(context.Background(), "m1", time.Hour)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].CapturedAt.Before(history[1].CapturedAt))
	assert.Equal(t, 2.10, history[0].Odds.Home)
	assert.Equal(t, 0.0, history[0].Odds.BTTS) // NULL maps to absent
}

func TestUpsertNews_UsesFingerprint(t *testing.T) {
	r, mock := newMockRepo(t)

	item := model.NewsItem{
		MatchID: "m1", Title: "Keeper injured", Source: "club-site",
		Confidence: model.ConfidenceHigh, PriorityBoost: 1.5,
	}

	mock.ExpectExec("INSERT INTO news_log").
		WithArgs("m1", item.Fingerprint(), "Keeper injured", "", "club-site",
			sqlmock.AnyArg(), "HIGH", 1.5, false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.UpsertNews(context.Background(), item))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadPendingMatches(t *testing.T) {
	r, mock := newMockRepo(t)

	start := time.Now().UTC().Add(6 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"id", "league_key", "home_team", "away_team", "start_instant",
		"opening_home", "opening_draw", "opening_away",
		"current_home", "current_draw", "current_away",
		"current_over25", "current_under25", "current_btts",
		"highest_emitted", "last_deep_dive",
	}).AddRow("m1", "serie_a", "Roma", "Lazio", start,
		2.20, 3.20, 3.40, 2.10, 3.30, 3.60, 1.90, 1.90, 1.80, 0, nil)

	mock.ExpectQuery("SELECT id, league_key").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	matches, err := r.ReadPendingMatches(context.Background(), time.Now(), 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Roma", matches[0].Home)
	assert.Equal(t, 2.20, matches[0].OpeningOdds.Home)
	assert.True(t, matches[0].LastDeepDive.IsZero())
}

func TestRecordAlert(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO alert_log").
		WithArgs("m1", int64(7), "BET", 82, "HOME", "value on the 1", "quant_edge",
			"HOME", 6.5, 1.8, 1.85, 2.05, "CONFIRMED").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.RecordAlert(context.Background(), model.AnalysisResult{
		MatchID: "m1", Cycle: 7, Verdict: model.VerdictBet, Confidence: 82,
		RecommendedMarket: model.MarketHome, Reasoning: "value on the 1",
		PrimaryDriver: "quant_edge",
		Quant: model.QuantBlock{
			BestMarket: model.MarketHome, EdgePct: 6.5, KellyPct: 1.8,
			FairOdd: 1.85, ActualOdd: 2.05,
		},
		Verification: model.VerificationConfirmed,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
