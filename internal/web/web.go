// Package web serves the single-page resume analysis form.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/telemetry"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"deref": func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	},
}).ParseFS(templateFS, "templates/index.html"))

// page is the view model for index.html. A failed run only sets Error.
type page struct {
	Name           string
	Email          string
	TargetRole     string
	JobDescription string

	ResumeText   string
	Analysis     string
	MatchScore   *int
	DownloadURL  string
	DownloadName string

	Error string
}

// Handler renders the form and runs the pipeline for form submissions.
type Handler struct {
	Svc            *analyses.Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *analyses.Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the page routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/analyze", h.analyze)
}

func (h *Handler) index(c *gin.Context) {
	render(c, http.StatusOK, page{})
}

func (h *Handler) analyze(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, analyses.BodyLimit(h.MaxUploadBytes))
	}

	view := page{
		Name:           c.PostForm("name"),
		Email:          c.PostForm("email"),
		TargetRole:     c.PostForm("targetRole"),
		JobDescription: c.PostForm("jobDescription"),
	}

	fileHeader, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		err = fmt.Errorf("%w: please upload your resume", analyses.ErrInvalidInput)
	}
	if err != nil {
		h.fail(c, view, err)
		return
	}
	up, err := analyses.ReadUpload(fileHeader, h.MaxUploadBytes)
	if err != nil {
		h.fail(c, view, err)
		return
	}

	ctx := analyses.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	doc, err := h.Svc.ExtractResume(ctx, up)
	if err != nil {
		h.fail(c, view, err)
		return
	}
	view.ResumeText = doc.Text

	analysis, err := h.Svc.Analyze(ctx, analyses.Input{
		ResumeText:     doc.Text,
		JobDescription: view.JobDescription,
		CandidateName:  view.Name,
		CandidateEmail: view.Email,
		TargetRole:     view.TargetRole,
		Upload:         &up,
	})
	if err != nil {
		h.fail(c, view, err)
		return
	}
	c.Set(middleware.AnalysisIDKey, analysis.ID)

	view.Analysis = analysis.Result
	view.MatchScore = analysis.MatchScore
	view.DownloadURL = analyses.DownloadURL(analysis.ID)
	view.DownloadName = analyses.DownloadFileName
	render(c, http.StatusOK, view)
}

// fail renders the form with one error message and no analysis output.
func (h *Handler) fail(c *gin.Context, view page, err error) {
	status, code, message := analyses.ErrorInfo(err)
	if status == http.StatusInternalServerError {
		message = "Something went wrong. Please try again."
	}
	telemetry.Warn("web.analyze.failed", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"status":     status,
		"code":       code,
		"error":      err.Error(),
	})

	view.Analysis = ""
	view.MatchScore = nil
	view.DownloadURL = ""
	view.Error = message
	render(c, status, view)
}

func render(c *gin.Context, status int, view page) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		telemetry.Error("web.render.failed", map[string]any{"error": err.Error()})
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
