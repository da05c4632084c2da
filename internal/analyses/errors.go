package analyses

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoText is returned when a resume yields no extractable text.
	ErrNoText = errors.New("resume contains no extractable text")
	// ErrAnalysisFailed wraps every failed LLM call. Nothing is stored when it occurs.
	ErrAnalysisFailed = errors.New("analysis failed")
)

const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeTooLarge         = "file_too_large"
	ErrorCodeUnsupportedType  = "unsupported_file_type"
	ErrorCodeExtractionFailed = "extraction_failed"
	ErrorCodeNoText           = "no_text"
	ErrorCodeAnalysisFailed   = "analysis_failed"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeInternal         = "internal_error"
)
