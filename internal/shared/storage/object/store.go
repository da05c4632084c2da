package object

import (
	"context"
	"io"
	"path"

	"resume-analyzer/internal/shared/util"
)

// ObjectStore stores uploaded resumes and other binary artifacts by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ResumeKey returns the storage key for the resume uploaded with an analysis.
func ResumeKey(analysisID, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join("resumes", analysisID, name), nil
}
