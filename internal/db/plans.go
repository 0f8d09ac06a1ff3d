package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studyplan/internal/models"
)

const planColumns = `id, topic, source, duration, strategy, terms, matches, tier, steps,
	resource_file, roadmap_file, docx_file, created_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(
		&p.ID,
		&p.Topic,
		&p.Source,
		&p.Duration,
		&p.Strategy,
		&p.Terms,
		&p.Matches,
		&p.Tier,
		&p.Steps,
		&p.ResourceFile,
		&p.RoadmapFile,
		&p.DocxFile,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan records a generated plan.
func (d *DB) CreatePlan(ctx context.Context, p *models.Plan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	terms, steps := p.Terms, p.Steps
	if terms == nil {
		terms = []string{}
	}
	if steps == nil {
		steps = []string{}
	}

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO plans (`+planColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.Topic, p.Source, p.Duration, p.Strategy, terms, p.Matches, p.Tier, steps,
		p.ResourceFile, p.RoadmapFile, p.DocxFile, p.CreatedAt)
	return err
}

// GetPlan returns a plan by ID.
func (d *DB) GetPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return scanPlan(d.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
}

// ListRecentPlans returns the newest plans first.
func (d *DB) ListRecentPlans(ctx context.Context, limit int) ([]models.Plan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+planColumns+` FROM plans
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// DeletePlansBefore removes plan records created before cutoff and
// returns how many were removed.
func (d *DB) DeletePlansBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM plans WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
