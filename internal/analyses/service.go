package analyses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/storage/object"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/shared/util"
)

// Service runs the extract and analyze pipeline and records completed analyses.
type Service struct {
	Repo     Repo
	LLM      llm.Client
	Store    object.ObjectStore
	Provider string
	Model    string

	now   func() time.Time
	newID func() string
}

// Extract pulls plain text out of an uploaded resume.
// A document without text is returned as-is; callers decide whether to proceed.
func (s *Service) Extract(ctx context.Context, up Upload) (extract.Document, error) {
	metrics.IncExtraction()
	doc, err := extract.ExtractTextFromBytes(ctx, up.Data, up.ContentType, up.FileName)
	if err != nil {
		metrics.IncExtractionFailed()
		telemetry.Warn("extract.failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"file_name":  up.FileName,
			"size_bytes": len(up.Data),
			"error":      err.Error(),
		})
		return extract.Document{}, err
	}
	telemetry.Info("extract.complete", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"file_name":  up.FileName,
		"mime_type":  doc.MimeType,
		"pages":      doc.Pages,
		"chars":      len(doc.Text),
	})
	return doc, nil
}

// ExtractResume extracts text like Extract and rejects documents that yield none.
func (s *Service) ExtractResume(ctx context.Context, up Upload) (extract.Document, error) {
	doc, err := s.Extract(ctx, up)
	if err != nil {
		return doc, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return doc, ErrNoText
	}
	return doc, nil
}

// Analyze sends the resume and job description to the LLM exactly once.
// On failure nothing is archived or recorded.
func (s *Service) Analyze(ctx context.Context, in Input) (Analysis, error) {
	if strings.TrimSpace(in.ResumeText) == "" {
		return Analysis{}, fmt.Errorf("%w: resume text is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return Analysis{}, fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}
	if s.LLM == nil || s.Repo == nil {
		return Analysis{}, errors.New("analysis service is not configured")
	}

	id := s.id()
	fields := map[string]any{
		"request_id":   requestIDFromContext(ctx),
		"analysis_id":  id,
		"provider":     s.Provider,
		"model":        s.Model,
		"resume_chars": len(in.ResumeText),
		"jd_chars":     len(in.JobDescription),
	}
	if email := strings.TrimSpace(in.CandidateEmail); email != "" {
		// Emails are logged as hashes only.
		fields["candidate_hash"] = util.HashKey(strings.ToLower(email))
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.started", fields)

	start := time.Now()
	text, err := s.LLM.Analyze(ctx, llm.Request{
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
	})
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObserveAnalysisDurationMs(durationMs)
	fields["duration_ms"] = durationMs
	if err != nil {
		metrics.IncAnalysisFailed()
		fields["error"] = err.Error()
		telemetry.Error("analysis.failed", fields)
		return Analysis{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysis := Analysis{
		ID:             id,
		CandidateName:  strings.TrimSpace(in.CandidateName),
		CandidateEmail: strings.TrimSpace(in.CandidateEmail),
		TargetRole:     strings.TrimSpace(in.TargetRole),
		ResumeChars:    len(in.ResumeText),
		JobDescription: in.JobDescription,
		Provider:       s.Provider,
		Model:          s.Model,
		Result:         text,
		MatchScore:     ParseMatchScore(text),
		CreatedAt:      s.clock().UTC(),
	}
	if in.Upload != nil {
		analysis.FileName = in.Upload.FileName
		analysis.ResumeKey = s.archive(ctx, id, *in.Upload)
	}

	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, fmt.Errorf("store analysis: %w", err)
	}

	metrics.IncAnalysisCompleted()
	if analysis.MatchScore != nil {
		fields["match_score"] = *analysis.MatchScore
	}
	delete(fields, "error")
	telemetry.Info("analysis.completed", fields)
	return analysis, nil
}

// Get returns a recorded analysis.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	if strings.TrimSpace(analysisID) == "" {
		return Analysis{}, fmt.Errorf("%w: analysis id is required", ErrInvalidInput)
	}
	if _, err := uuid.Parse(analysisID); err != nil {
		return Analysis{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, analysisID)
}

// OpenResume streams the resume archived with an analysis. Analyses without
// an archived file report ErrNotFound.
func (s *Service) OpenResume(ctx context.Context, analysisID string) (Analysis, io.ReadCloser, error) {
	analysis, err := s.Get(ctx, analysisID)
	if err != nil {
		return Analysis{}, nil, err
	}
	if s.Store == nil || analysis.ResumeKey == "" {
		return Analysis{}, nil, fmt.Errorf("%w: no archived resume", ErrNotFound)
	}
	rc, err := s.Store.Open(ctx, analysis.ResumeKey)
	if err != nil {
		telemetry.Warn("archive.open_failed", map[string]any{
			"request_id":  requestIDFromContext(ctx),
			"analysis_id": analysisID,
			"key":         analysis.ResumeKey,
			"error":       err.Error(),
		})
		return Analysis{}, nil, fmt.Errorf("open resume: %w", err)
	}
	return analysis, rc, nil
}

// archive copies the original upload to the object store. Failures are logged
// and leave the analysis without a resume key.
func (s *Service) archive(ctx context.Context, analysisID string, up Upload) string {
	if s.Store == nil || len(up.Data) == 0 {
		return ""
	}
	key, err := object.ResumeKey(analysisID, up.FileName)
	if err != nil {
		telemetry.Warn("archive.skipped", map[string]any{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
		return ""
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(up.Data)); err != nil {
		telemetry.Warn("archive.failed", map[string]any{
			"analysis_id": analysisID,
			"key":         key,
			"error":       err.Error(),
		})
		return ""
	}
	return key
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}
