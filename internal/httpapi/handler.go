// Package httpapi exposes the brain service over HTTP/JSON.
//
// Routes:
//
//	GET    /health                         → liveness
//	POST   /documents                      → upload (multipart doc_type, file)
//	GET    /documents/:id/download         → stream a stored document
//	GET    /resumes                        → list résumés
//	GET    /resumes/:id/jobs               → jobs a résumé was used for
//	POST   /applications                   → log a job and the résumé used
//	GET    /applications                   → history
//	GET    /jobs[?company=]                → list jobs, optionally by company
//	GET    /lookup?company=&role=          → résumé used for a job
//	POST   /chat/sessions                  → start a chat session
//	GET    /chat/sessions/:id              → conversation log
//	POST   /chat/sessions/:id/messages     → chat turn
//	GET    /chat/sessions/:id/download     → last résumé found in the session
//	DELETE /chat/sessions/:id              → end the session
package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"jobmate/brain-service/internal/chat"
	"jobmate/brain-service/internal/documents"
	"jobmate/brain-service/internal/events"
	"jobmate/brain-service/internal/records"
)

const dateLayout = "2006-01-02"

// Handler holds shared dependencies.
type Handler struct {
	version   string
	records   records.Store
	docs      *documents.Service
	chat      *chat.Service
	events    events.Publisher
	maxUpload int64
}

// Deps groups what NewHandler needs.
type Deps struct {
	Version   string
	Records   records.Store
	Documents *documents.Service
	Chat      *chat.Service
	Events    events.Publisher
	MaxUpload int64
}

// NewHandler returns a configured Handler. A nil Events publisher discards
// events.
func NewHandler(d Deps) *Handler {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{
		version:   d.Version,
		records:   d.Records,
		docs:      d.Documents,
		chat:      d.Chat,
		events:    pub,
		maxUpload: d.MaxUpload,
	}
}

// RegisterRoutes mounts all routes on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.health)

	r.POST("/documents", h.uploadDocument)
	r.GET("/documents/:id/download", h.downloadDocument)

	r.GET("/resumes", h.listResumes)
	r.GET("/resumes/:id/jobs", h.listJobsForResume)

	r.POST("/applications", h.logApplication)
	r.GET("/applications", h.listApplications)
	r.GET("/jobs", h.listJobs)
	r.GET("/lookup", h.lookup)

	s := r.Group("/chat/sessions")
	s.POST("", h.startSession)
	s.GET("/:id", h.getSession)
	s.POST("/:id/messages", h.sendMessage)
	s.GET("/:id/download", h.downloadLastResume)
	s.DELETE("/:id", h.endSession)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "brain-service",
		"version": h.version,
	})
}

// ─── Documents ───────────────────────────────────────────────────────────────

func (h *Handler) uploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		jsonError(c, http.StatusBadRequest, "file is required")
		return
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		jsonError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxUpload))
		return
	}
	f, err := fh.Open()
	if err != nil {
		jsonError(c, http.StatusBadRequest, "cannot read file")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "cannot read file")
		return
	}

	res, err := h.docs.Upload(c.Request.Context(), c.PostForm("doc_type"), fh.Filename, content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) downloadDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, rc, err := h.docs.Open(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer rc.Close()
	streamFile(c, doc.Filename, rc)
}

// ─── Records ─────────────────────────────────────────────────────────────────

func (h *Handler) listResumes(c *gin.Context) {
	docs, err := h.records.ListResumes(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumes": docs})
}

func (h *Handler) listJobsForResume(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	jobs, err := h.records.ListJobsForResume(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

type logApplicationRequest struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	DateApplied string `json:"dateApplied"` // YYYY-MM-DD, defaults to today
	Status      string `json:"status"`
	ResumeID    int64  `json:"resumeId"`
}

func (h *Handler) logApplication(c *gin.Context) {
	var req logApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.ResumeID <= 0 {
		jsonError(c, http.StatusBadRequest, "resumeId is required")
		return
	}

	in := records.JobInput{Company: req.Company, Role: req.Role, Status: req.Status}
	if d := strings.TrimSpace(req.DateApplied); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "dateApplied must be YYYY-MM-DD")
			return
		}
		in.DateApplied = t
	}

	ctx := c.Request.Context()
	jobID, appID, err := records.LogApplication(ctx, h.records, in, req.ResumeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	status, _ := records.ParseStatus(req.Status)
	events.Notify(ctx, h.events, events.Event{
		Type:          events.ApplicationLogged,
		ApplicationID: appID,
		JobID:         jobID,
		ResumeID:      req.ResumeID,
		Company:       strings.TrimSpace(req.Company),
		Role:          strings.TrimSpace(req.Role),
		Status:        string(status),
	})

	c.JSON(http.StatusCreated, gin.H{"jobId": jobID, "applicationId": appID})
}

func (h *Handler) listApplications(c *gin.Context) {
	apps, err := h.records.ListApplications(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *Handler) listJobs(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		jobs []records.Job
		err  error
	)
	if company, ok := c.GetQuery("company"); ok {
		jobs, err = h.records.ListJobsByCompany(ctx, company)
	} else {
		jobs, err = h.records.ListJobs(ctx)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *Handler) lookup(c *gin.Context) {
	company := strings.TrimSpace(c.Query("company"))
	role := strings.TrimSpace(c.Query("role"))
	if company == "" || role == "" {
		jsonError(c, http.StatusBadRequest, "company and role are required")
		return
	}
	ref, err := h.records.GetResumeForJob(c.Request.Context(), company, role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

// ─── Chat ────────────────────────────────────────────────────────────────────

func (h *Handler) startSession(c *gin.Context) {
	sess, err := h.chat.Start(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) getSession(c *gin.Context) {
	sess, err := h.chat.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(c, http.StatusBadRequest, "message is required")
		return
	}

	sess, reply, err := h.chat.SendTo(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply":      reply,
		"lastResume": sess.LastResume,
		"messages":   len(sess.Messages),
	})
}

func (h *Handler) downloadLastResume(c *gin.Context) {
	ctx := c.Request.Context()
	sess, err := h.chat.Session(ctx, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if sess.LastResume == nil {
		jsonError(c, http.StatusNotFound, "no resume found in this session yet")
		return
	}
	rc, err := h.docs.OpenPath(ctx, sess.LastResume.FilePath)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer rc.Close()
	streamFile(c, sess.LastResume.Filename, rc)
}

func (h *Handler) endSession(c *gin.Context) {
	if err := h.chat.End(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func streamFile(c *gin.Context, filename string, r io.Reader) {
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, ct, r, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": filename}),
	})
}
