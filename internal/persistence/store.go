// Package persistence defines the storage surface the pipeline depends
// on. Each operation is atomic from the caller's point of view; the
// concrete backend lives in the postgres subpackage.
package persistence

import (
	"context"
	"time"

	"github.com/cicosss/earlybird/internal/model"
)

// Store is everything the pipeline asks of durable storage.
type Store interface {
	// UpsertMatch creates or refreshes a fixture row.
	UpsertMatch(ctx context.Context, m model.Match) error
	// AppendOddsSnapshot records one market capture; snapshots are
	// keyed (match, captured_at) and appended in wall-clock order.
	AppendOddsSnapshot(ctx context.Context, snap model.OddsSnapshot) error
	// ReadOddsHistory returns a match's snapshots within the trailing
	// window, oldest first.
	ReadOddsHistory(ctx context.Context, matchID string, window time.Duration) ([]model.OddsSnapshot, error)
	// UpsertNews stores a news item, collapsing duplicates on the
	// (match, fingerprint) key.
	UpsertNews(ctx context.Context, item model.NewsItem) error
	// ReadPendingMatches returns fixtures still inside the analyzable
	// window: strictly in the future, within the horizon.
	ReadPendingMatches(ctx context.Context, now time.Time, horizon time.Duration) ([]model.Match, error)
	// RecordAlert logs an emitted decision, keyed (match, cycle).
	RecordAlert(ctx context.Context, result model.AnalysisResult) error
}
