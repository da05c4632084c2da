package analyses

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	score := 72
	analysis := Analysis{
		ID:             "5b0f3c1e-8a57-4a51-9d3e-1f6c2d9f0a11",
		CandidateName:  "Jane",
		CandidateEmail: "jane@example.com",
		TargetRole:     "Backend Engineer",
		FileName:       "cv.pdf",
		ResumeKey:      "resumes/5b0f3c1e-8a57-4a51-9d3e-1f6c2d9f0a11/cv.pdf",
		ResumeChars:    20,
		JobDescription: "Looking for engineer",
		Provider:       "groq",
		Model:          "qwen-qwq-32b",
		Result:         "Match Score: 72%",
		MatchScore:     &score,
		CreatedAt:      time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
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
			int64(72),
			analysis.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateNullScore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), Analysis{ID: "a", Result: "no score"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{
		"id", "candidate_name", "candidate_email", "target_role", "file_name", "resume_key", "resume_chars",
		"job_description", "provider", "model", "result", "match_score", "created_at",
	}
	mock.ExpectQuery("SELECT id, candidate_name").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"a-1", "", "", "", "cv.pdf", "", 42, "jd", "groq", "qwen-qwq-32b", "analysis text", int64(55), created,
		))

	repo := &PGRepo{DB: db}
	got, err := repo.GetByID(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Result != "analysis text" || got.ResumeChars != 42 || got.FileName != "cv.pdf" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if got.MatchScore == nil || *got.MatchScore != 55 {
		t.Fatalf("unexpected match score: %v", got.MatchScore)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created at: %v", got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, candidate_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
