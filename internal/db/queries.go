package db

import (
	"context"
	"fmt"
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/logger"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

// TrackedPair is one (provider, key) series present in the history table.
type TrackedPair struct {
	Provider string
	Key      string
}

// InsertQuotaSnapshot records a point-in-time remaining-percent reading.
func (db *DB) InsertQuotaSnapshot(snapshot *models.QuotaSnapshot) error {
	query := `
		INSERT INTO quota_snapshots (timestamp, provider, key, remaining_percent)
		VALUES (?, ?, ?, ?)
	`

	timestamp := snapshot.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format("2006-01-02 15:04:05"),
		snapshot.Provider,
		snapshot.Key,
		snapshot.RemainingPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quota snapshot: %w", err)
	}

	return nil
}

// GetSeries returns the remaining-percent series for one (provider, key)
// pair within the time range, oldest first.
func (db *DB) GetSeries(provider, key string, timeRange models.TimeRange) ([]models.SeriesPoint, error) {
	query := `
		SELECT timestamp, remaining_percent
		FROM quota_snapshots
		WHERE provider = ? AND key = ?
	`
	args := []any{provider, key}

	if days := timeRange.Days(); days > 0 {
		query += sqlTimeFilterClause
		args = append(args, fmt.Sprintf("-%d days", days))
	}
	query += " ORDER BY timestamp ASC"

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var points []models.SeriesPoint
	for rows.Next() {
		var p models.SeriesPoint
		var ts string
		if err := rows.Scan(&ts, &p.RemainingPercent); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		p.Timestamp, _ = time.ParseInLocation("2006-01-02 15:04:05", ts, time.UTC)
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetTrackedPairs returns every (provider, key) pair with at least one
// snapshot, most recently updated first.
func (db *DB) GetTrackedPairs() ([]TrackedPair, error) {
	query := `
		SELECT provider, key
		FROM quota_snapshots
		GROUP BY provider, key
		ORDER BY MAX(timestamp) DESC
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked pairs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var pairs []TrackedPair
	for rows.Next() {
		var p TrackedPair
		if err := rows.Scan(&p.Provider, &p.Key); err != nil {
			return nil, fmt.Errorf("failed to scan tracked pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// CountSnapshots returns the total number of stored snapshots.
func (db *DB) CountSnapshots() (int, error) {
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM quota_snapshots").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes snapshots older than the given number of days and
// returns the number of rows removed.
func (db *DB) PruneOlderThan(days int) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM quota_snapshots WHERE timestamp < datetime('now', ?)",
		fmt.Sprintf("-%d days", days))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}
