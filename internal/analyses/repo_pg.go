package analyses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, candidate_name, candidate_email, target_role, file_name, resume_key, resume_chars,
	job_description, provider, model, result, match_score, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	var score sql.NullInt64
	if analysis.MatchScore != nil {
		score = sql.NullInt64{Int64: int64(*analysis.MatchScore), Valid: true}
	}
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.CandidateName,
		analysis.CandidateEmail,
		analysis.TargetRole,
		analysis.FileName,
		analysis.ResumeKey,
		analysis.ResumeChars,
		analysis.JobDescription,
		analysis.Provider,
		analysis.Model,
		analysis.Result,
		score,
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis id=%s: %w", analysis.ID, err)
	}
	return nil
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, candidate_name, candidate_email, target_role, file_name, resume_key, resume_chars,
       job_description, provider, model, result, match_score, created_at
FROM analyses
WHERE id = $1
LIMIT 1`
	var a Analysis
	var score sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, analysisID).Scan(
		&a.ID,
		&a.CandidateName,
		&a.CandidateEmail,
		&a.TargetRole,
		&a.FileName,
		&a.ResumeKey,
		&a.ResumeChars,
		&a.JobDescription,
		&a.Provider,
		&a.Model,
		&a.Result,
		&score,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, fmt.Errorf("select analysis id=%s: %w", analysisID, err)
	}
	if score.Valid {
		v := int(score.Int64)
		a.MatchScore = &v
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

var _ Repo = (*PGRepo)(nil)
