package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cosmoslim/prescription-server/internal/pdfform"
	"github.com/cosmoslim/prescription-server/internal/prescription"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// submissionForm is the browser-facing form payload.
type submissionForm struct {
	PatientName  string `form:"patient_name"`
	Age          int    `form:"age"`
	Date         string `form:"date"`
	Treatment    string `form:"treatment"`
	Session      string `form:"session"`
	FollowUp     string `form:"follow_up"`
	Instructions string `form:"instructions"`
}

const htmlDateLayout = "2006-01-02"

func (s *Server) handleForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.tmpl", gin.H{
		"Treatments":      prescription.Treatments,
		"Today":           time.Now().Format(htmlDateLayout),
		"SheetsConnected": s.cfg.SheetsConnected,
	})
}

func (s *Server) handleSubmit(c *gin.Context) {
	var form submissionForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid form data: %v", err)})
		return
	}

	now := time.Now()
	record := prescription.NewRecord(
		form.PatientName,
		form.Age,
		parseDate(form.Date, now),
		prescription.Treatment(form.Treatment),
		form.Session,
		parseDate(form.FollowUp, now),
		form.Instructions,
		now,
	)

	res, err := s.runner.Run(c.Request.Context(), record)
	if err != nil {
		// Validation errors return the user to the form; template and
		// render errors end the submission with no artifact.
		if res != nil && res.ArtifactPath != "" {
			os.Remove(res.ArtifactPath)
		}
		status := http.StatusBadRequest
		if errors.Is(err, pdfform.ErrTemplateNotFound) ||
			errors.Is(err, pdfform.ErrInvalidTemplate) ||
			errors.Is(err, pdfform.ErrNoFormFields) ||
			errors.Is(err, pdfform.ErrRender) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// The artifact is read into memory and its file deleted right away, so
	// nothing accumulates on disk for download links that are never clicked.
	data, readErr := os.ReadFile(res.ArtifactPath)
	if removeErr := os.Remove(res.ArtifactPath); removeErr != nil && !os.IsNotExist(removeErr) {
		s.logger.Warn("Failed to remove artifact", zap.String("path", res.ArtifactPath), zap.Error(removeErr))
	}
	if readErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generated document could not be read back"})
		return
	}

	token := newToken()
	s.mu.Lock()
	s.artifacts[token] = artifact{data: data, filename: record.ArtifactFilename()}
	s.mu.Unlock()

	resp := gin.H{
		"patient_name":   record.PatientName,
		"sheets_message": res.SheetsMessage,
		"download_token": token,
	}
	if res.Persisted {
		resp["prescription_id"] = res.PrescriptionID
	}
	if len(res.Unmatched) > 0 {
		resp["unmatched_fields"] = res.Unmatched
	}
	if res.FlattenMessage != "" {
		resp["flatten_message"] = res.FlattenMessage
	}

	c.JSON(http.StatusOK, resp)
}

// handleDownload streams the artifact once. Tokens are single-use: the
// entry is removed before the response is written.
func (s *Server) handleDownload(c *gin.Context) {
	token := c.Param("token")

	s.mu.Lock()
	art, ok := s.artifacts[token]
	delete(s.artifacts, token)
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found or already used"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, art.filename))
	c.Data(http.StatusOK, "application/pdf", art.data)
}

func (s *Server) handleTemplateFields(c *gin.Context) {
	fields, err := s.inspector.Inspect(s.cfg.TemplatePath)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pdfform.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(fields))
	for _, f := range fields {
		entry := gin.H{
			"name": f.Name,
			"type": f.Type,
		}
		if f.HasRect {
			x, y := f.Rect.Center()
			entry["rect"] = f.Rect
			entry["center"] = gin.H{"x": x, "y": y}
			entry["width"] = f.Rect.Width()
			entry["height"] = f.Rect.Height()
		}
		if f.Value != "" {
			entry["value"] = f.Value
		}
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{"count": len(out), "fields": out})
}

func (s *Server) handleTemplatePreview(c *gin.Context) {
	if s.previewer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not enabled"})
		return
	}

	data, err := s.previewer.FirstPagePNG(s.cfg.TemplatePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// parseDate parses an HTML date input value, defaulting to fallback when
// empty or malformed.
func parseDate(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse(htmlDateLayout, s)
	if err != nil {
		return fallback
	}
	return t
}

func newToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand read failures are not recoverable at this level
		panic(err)
	}
	return hex.EncodeToString(b)
}
