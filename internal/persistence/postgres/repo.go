// Package postgres is the sqlx-backed implementation of the
// persistence.Store interface. Every query runs under a bounded
// context timeout and upserts go through ON CONFLICT so re-polls are
// idempotent.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/cicosss/earlybird/internal/model"
	"github.com/cicosss/earlybird/internal/persistence"
)

type repo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New builds the Postgres store over an open connection pool.
func New(db *sqlx.DB, timeout time.Duration) persistence.Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &repo{db: db, timeout: timeout}
}

// Open dials Postgres with the given DSN and verifies the connection.
func Open(dsn string, timeout time.Duration) (persistence.Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return New(db, timeout), nil
}

func (r *repo) UpsertMatch(ctx context.Context, m model.Match) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO matches
		(id, league_key, home_team, away_team, start_instant,
		 opening_home, opening_draw, opening_away,
		 current_home, current_draw, current_away,
		 current_over25, current_under25, current_btts,
		 highest_emitted, last_deep_dive)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			current_home = EXCLUDED.current_home,
			current_draw = EXCLUDED.current_draw,
			current_away = EXCLUDED.current_away,
			current_over25 = EXCLUDED.current_over25,
			current_under25 = EXCLUDED.current_under25,
			current_btts = EXCLUDED.current_btts,
			highest_emitted = EXCLUDED.highest_emitted,
			last_deep_dive = EXCLUDED.last_deep_dive`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.LeagueKey, m.Home, m.Away, m.StartInstant.UTC(),
		nullOdd(m.OpeningOdds.Home), nullOdd(m.OpeningOdds.Draw), nullOdd(m.OpeningOdds.Away),
		nullOdd(m.CurrentOdds.Home), nullOdd(m.CurrentOdds.Draw), nullOdd(m.CurrentOdds.Away),
		nullOdd(m.CurrentOdds.Over25), nullOdd(m.CurrentOdds.Under25), nullOdd(m.CurrentOdds.BTTS),
		m.HighestEmitted, nullTime(m.LastDeepDive))
	if err != nil {
		return fmt.Errorf("failed to upsert match %s: %w", m.ID, err)
	}
	return nil
}

func (r *repo) AppendOddsSnapshot(ctx context.Context, snap model.OddsSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO odds_snapshots
		(match_id, captured_at, home, draw, away, over25, under25, btts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (match_id, captured_at) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		snap.MatchID, snap.CapturedAt.UTC(),
		nullOdd(snap.Odds.Home), nullOdd(snap.Odds.Draw), nullOdd(snap.Odds.Away),
		nullOdd(snap.Odds.Over25), nullOdd(snap.Odds.Under25), nullOdd(snap.Odds.BTTS))
	if err != nil {
		return fmt.Errorf("failed to append odds snapshot for %s: %w", snap.MatchID, err)
	}
	return nil
}

type snapshotRow struct {
	MatchID    string          `db:"match_id"`
	CapturedAt time.Time       `db:"captured_at"`
	Home       sql.NullFloat64 `db:"home"`
	Draw       sql.NullFloat64 `db:"draw"`
	Away       sql.NullFloat64 `db:"away"`
	Over25     sql.NullFloat64 `db:"over25"`
	Under25    sql.NullFloat64 `db:"under25"`
	BTTS       sql.NullFloat64 `db:"btts"`
}

func (r *repo) ReadOddsHistory(ctx context.Context, matchID string, window time.Duration) ([]model.OddsSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT match_id, captured_at, home, draw, away, over25, under25, btts
		FROM odds_snapshots
		WHERE match_id = $1 AND captured_at >= $2
		ORDER BY captured_at ASC`

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, matchID, time.Now().UTC().Add(-window)); err != nil {
		return nil, fmt.Errorf("failed to read odds history for %s: %w", matchID, err)
	}

	out := make([]model.OddsSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.OddsSnapshot{
			MatchID:    row.MatchID,
			CapturedAt: row.CapturedAt,
			Odds: model.Odds{
				Home:    row.Home.Float64,
				Draw:    row.Draw.Float64,
				Away:    row.Away.Float64,
				Over25:  row.Over25.Float64,
				Under25: row.Under25.Float64,
				BTTS:    row.BTTS.Float64,
			},
		})
	}
	return out, nil
}

func (r *repo) UpsertNews(ctx context.Context, item model.NewsItem) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO news_log
		(match_id, fingerprint, title, snippet, source, published_at,
		 confidence, priority_boost, deep_dive_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, fingerprint) DO UPDATE SET
			priority_boost = GREATEST(news_log.priority_boost, EXCLUDED.priority_boost),
			deep_dive_applied = news_log.deep_dive_applied OR EXCLUDED.deep_dive_applied`

	_, err := r.db.ExecContext(ctx, query,
		item.MatchID, item.Fingerprint(), item.Title, item.Snippet, item.Source,
		nullTime(item.PublishedAt), string(item.Confidence), item.PriorityBoost, item.DeepDiveApplied)
	if err != nil {
		return fmt.Errorf("failed to upsert news for %s: %w", item.MatchID, err)
	}
	return nil
}

type matchRow struct {
	ID             string          `db:"id"`
	LeagueKey      string          `db:"league_key"`
	Home           string          `db:"home_team"`
	Away           string          `db:"away_team"`
	StartInstant   time.Time       `db:"start_instant"`
	OpeningHome    sql.NullFloat64 `db:"opening_home"`
	OpeningDraw    sql.NullFloat64 `db:"opening_draw"`
	OpeningAway    sql.NullFloat64 `db:"opening_away"`
	CurrentHome    sql.NullFloat64 `db:"current_home"`
	CurrentDraw    sql.NullFloat64 `db:"current_draw"`
	CurrentAway    sql.NullFloat64 `db:"current_away"`
	CurrentOver25  sql.NullFloat64 `db:"current_over25"`
	CurrentUnder25 sql.NullFloat64 `db:"current_under25"`
	CurrentBTTS    sql.NullFloat64 `db:"current_btts"`
	HighestEmitted int             `db:"highest_emitted"`
	LastDeepDive   sql.NullTime    `db:"last_deep_dive"`
}

func (r *repo) ReadPendingMatches(ctx context.Context, now time.Time, horizon time.Duration) ([]model.Match, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, league_key, home_team, away_team, start_instant,
		       opening_home, opening_draw, opening_away,
		       current_home, current_draw, current_away,
		       current_over25, current_under25, current_btts,
		       highest_emitted, last_deep_dive
		FROM matches
		WHERE start_instant > $1 AND start_instant <= $2
		ORDER BY start_instant ASC`

	var rows []matchRow
	if err := r.db.SelectContext(ctx, &rows, query, now.UTC(), now.UTC().Add(horizon)); err != nil {
		return nil, fmt.Errorf("failed to read pending matches: %w", err)
	}

	out := make([]model.Match, 0, len(rows))
	for _, row := range rows {
		m := model.Match{
			ID:           row.ID,
			LeagueKey:    row.LeagueKey,
			Home:         row.Home,
			Away:         row.Away,
			StartInstant: row.StartInstant,
			OpeningOdds: model.Odds{
				Home: row.OpeningHome.Float64,
				Draw: row.OpeningDraw.Float64,
				Away: row.OpeningAway.Float64,
			},
			CurrentOdds: model.Odds{
				Home:    row.CurrentHome.Float64,
				Draw:    row.CurrentDraw.Float64,
				Away:    row.CurrentAway.Float64,
				Over25:  row.CurrentOver25.Float64,
				Under25: row.CurrentUnder25.Float64,
				BTTS:    row.CurrentBTTS.Float64,
			},
			HighestEmitted: row.HighestEmitted,
		}
		if row.LastDeepDive.Valid {
			m.LastDeepDive = row.LastDeepDive.Time
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *repo) RecordAlert(ctx context.Context, result model.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO alert_log
		(match_id, cycle, verdict, confidence, recommended_market, reasoning,
		 primary_driver, best_market, edge_pct, kelly_pct, fair_odd, actual_odd,
		 verification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (match_id, cycle) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		result.MatchID, result.Cycle, string(result.Verdict), result.Confidence,
		string(result.RecommendedMarket), result.Reasoning, result.PrimaryDriver,
		string(result.Quant.BestMarket), result.Quant.EdgePct, result.Quant.KellyPct,
		result.Quant.FairOdd, result.Quant.ActualOdd, string(result.Verification))
	if err != nil {
		return fmt.Errorf("failed to record alert for %s: %w", result.MatchID, err)
	}
	return nil
}

func nullOdd(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
