package analyses

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches extraction and analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract", h.extract)
	rg.POST("/analyses", h.createAnalysis)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/analyses/:id/download", h.download)
	rg.GET("/analyses/:id/resume", h.resume)
}

func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, BodyLimit(h.MaxUploadBytes))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.fail(c, formError(err, "file is required"))
		return
	}
	up, err := ReadUpload(fileHeader, h.MaxUploadBytes)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	doc, err := h.Svc.Extract(ctx, up)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond.OK(c, gin.H{
		"fileName": up.FileName,
		"mimeType": doc.MimeType,
		"pages":    doc.Pages,
		"text":     doc.Text,
	})
}

func (h *Handler) createAnalysis(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, BodyLimit(h.MaxUploadBytes))
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.fail(c, formError(err, "invalid form body"))
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	in := Input{
		ResumeText:     c.PostForm("resumeText"),
		JobDescription: c.PostForm("jobDescription"),
		CandidateName:  c.PostForm("name"),
		CandidateEmail: c.PostForm("email"),
		TargetRole:     c.PostForm("targetRole"),
	}

	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		up, err := ReadUpload(fileHeader, h.MaxUploadBytes)
		if err != nil {
			h.fail(c, err)
			return
		}
		doc, err := h.Svc.ExtractResume(ctx, up)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.ResumeText = doc.Text
		in.Upload = &up
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		if strings.TrimSpace(in.ResumeText) == "" {
			respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file or resumeText is required", nil)
			return
		}
	default:
		h.fail(c, formError(err, "invalid file"))
		return
	}

	analysis, err := h.Svc.Analyze(ctx, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)

	respond.Created(c, "/api/v1/analyses/"+analysis.ID, gin.H{
		"analysisId":  analysis.ID,
		"analysis":    analysis.Result,
		"matchScore":  analysis.MatchScore,
		"downloadUrl": DownloadURL(analysis.ID),
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}
	respond.OK(c, analysis)
}

func (h *Handler) download(c *gin.Context) {
	analysis, ok := h.lookup(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+DownloadFileName+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(analysis.Result))
}

func (h *Handler) resume(c *gin.Context) {
	analysisID := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.AnalysisIDKey, analysisID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, rc, err := h.Svc.OpenResume(ctx, analysisID)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	name := path.Base(analysis.ResumeKey)
	c.DataFromReader(http.StatusOK, -1, resumeContentType(name), rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}

func resumeContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return extract.MimePDF
	case ".docx":
		return extract.MimeDOCX
	default:
		return "application/octet-stream"
	}
}

func (h *Handler) lookup(c *gin.Context) (Analysis, bool) {
	analysisID := strings.TrimSpace(c.Param("id"))
	c.Set(middleware.AnalysisIDKey, analysisID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	analysis, err := h.Svc.Get(ctx, analysisID)
	if err != nil {
		h.fail(c, err)
		return Analysis{}, false
	}
	return analysis, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code, message := ErrorInfo(err)
	respond.Error(c, status, code, message, nil)
}

// formError keeps oversized bodies distinguishable from malformed forms.
func formError(err error, message string) error {
	if isTooLarge(err) {
		return ErrTooLarge
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, message)
}
