// Package extract turns uploaded resume files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrExtractionFailed reports an unreadable, corrupted or encrypted document.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrUnsupportedType reports a file that is neither PDF nor DOCX.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Document is the text pulled from one file.
// Pages is zero for formats without pagination.
type Document struct {
	Text     string
	Pages    int
	MimeType string
}

// ExtractTextFromBytes extracts text from an in-memory payload. The declared
// mime type wins; otherwise the content is sniffed and the file extension is
// used as a last resort.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: empty file", ErrExtractionFailed)
	}

	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case MimePDF:
		text, pages, err := extractPDF(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: pdf: %v", ErrExtractionFailed, err)
		}
		return Document{Text: text, Pages: pages, MimeType: MimePDF}, nil
	case MimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: docx: %v", ErrExtractionFailed, err)
		}
		return Document{Text: text, MimeType: MimeDOCX}, nil
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, normalized)
	}
}

// ExtractPDF extracts the text of every page of a PDF, concatenated in page order.
func ExtractPDF(ctx context.Context, data []byte) (Document, error) {
	return ExtractTextFromBytes(ctx, data, MimePDF, "")
}

// extractPDF reads each page in order and fails as a whole if any page fails.
// The parser prefixes each page with a line break; the joined text is trimmed.
// The parser panics on some malformed inputs; those are reported as errors.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, pages = "", 0
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	pages = reader.NumPage()
	var buf strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(pageText)
	}
	return strings.TrimSpace(buf.String()), pages, nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.StartElement:
			if t.Name.Local == "tab" {
				buf.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "", "application/octet-stream", "binary/octet-stream":
		clean = strings.Split(http.DetectContentType(data), ";")[0]
	}

	switch clean {
	case MimePDF, MimeDOCX:
		return clean
	case "application/zip", "application/x-zip-compressed":
		if isDocxZip(data) {
			return MimeDOCX
		}
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	return clean
}

func isDocxZip(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
