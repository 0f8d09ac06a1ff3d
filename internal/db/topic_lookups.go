package db

import (
	"context"
	"time"

	"studyplan/internal/models"
)

// IncrementTopicLookup upserts a topic lookup count by outcome.
func (d *DB) IncrementTopicLookup(ctx context.Context, topic, outcome string) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO topic_lookups (topic, outcome, count, last_seen_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (topic, outcome) DO UPDATE
		SET count = topic_lookups.count + 1, last_seen_at = NOW()
	`, topic, outcome)
	return err
}

// GetAllTopicLookups returns all topic lookup rows for metrics export.
func (d *DB) GetAllTopicLookups(ctx context.Context) ([]models.TopicLookup, error) {
	rows, err := d.Pool.Query(ctx, `SELECT topic, outcome, count, last_seen_at FROM topic_lookups`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []models.TopicLookup
	for rows.Next() {
		var l models.TopicLookup
		if err := rows.Scan(&l.Topic, &l.Outcome, &l.Count, &l.LastSeenAt); err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}

// DeleteTopicLookupsBefore removes lookup counters not seen since cutoff and
// returns how many rows were deleted.
func (d *DB) DeleteTopicLookupsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM topic_lookups WHERE last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
