package analyses

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"resume-analyzer/internal/extract"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload too large")

// formOverheadBytes leaves room for text fields next to the file part.
const formOverheadBytes = 1 << 20

// BodyLimit is the request body cap for a form carrying an upload of at most maxUpload bytes.
func BodyLimit(maxUpload int64) int64 {
	return maxUpload + formOverheadBytes
}

// ReadUpload loads a multipart file part into memory.
func ReadUpload(fh *multipart.FileHeader, maxUpload int64) (Upload, error) {
	if fh == nil {
		return Upload{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if maxUpload > 0 && fh.Size > maxUpload {
		return Upload{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("%w: unable to read file", ErrInvalidInput)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		if isTooLarge(err) {
			return Upload{}, ErrTooLarge
		}
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	return Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

// ErrorInfo maps a pipeline error to an HTTP status, error code, and user-facing message.
func ErrorInfo(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrTooLarge), isTooLarge(err):
		return http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "The uploaded file is too large."
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, ErrorCodeValidation, strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, ErrorCodeUnsupportedType, "Only PDF and DOCX resumes are supported."
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, ErrorCodeExtractionFailed, "Could not extract text from the resume."
	case errors.Is(err, ErrNoText):
		return http.StatusUnprocessableEntity, ErrorCodeNoText, "The resume does not contain any extractable text."
	case errors.Is(err, ErrAnalysisFailed):
		return http.StatusBadGateway, ErrorCodeAnalysisFailed, "The analysis could not be completed. Please try again later."
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrorCodeNotFound, "analysis not found"
	default:
		return http.StatusInternalServerError, ErrorCodeInternal, "internal error"
	}
}

// DownloadURL is the API path serving the analysis as resume_analysis.txt.
func DownloadURL(analysisID string) string {
	return "/api/v1/analyses/" + analysisID + "/download"
}
