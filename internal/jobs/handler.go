package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the intake lifecycle endpoints. The status route is
// registered separately so the router can rate limit the polling surface on
// its own.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/intake/file", h.selectFile)
	rg.POST("/intake/submit", h.submit)
	rg.POST("/intake/reset", h.reset)
}

// RegisterStatusRoute mounts the poll endpoint on the given group.
func (h *Handler) RegisterStatusRoute(rg *gin.RouterGroup) {
	rg.GET("/intake/status", h.status)
}

func (h *Handler) selectFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "missing file field", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read upload", nil)
		return
	}
	defer file.Close()

	job, err := h.Svc.SelectFile(c.Request.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			respond.Error(c, http.StatusBadRequest, "validation_error", vErr.Message, nil)
		case errors.Is(err, ErrJobInFlight):
			respond.Error(c, http.StatusConflict, "job_in_flight", "an upload is already in flight", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stage file", nil)
		}
		return
	}

	c.Set("jobId", job.ID)
	c.Set("phaseTransition", string(job.Phase))
	respond.OK(c, job)
}

func (h *Handler) submit(c *gin.Context) {
	job, err := h.Svc.Submit(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrNoJob):
			respond.Error(c, http.StatusBadRequest, "no_file_selected", "select a file before submitting", nil)
		case errors.Is(err, ErrJobInFlight):
			respond.Error(c, http.StatusConflict, "job_in_flight", "an upload is already in flight", nil)
		default:
			respond.Error(c, http.StatusConflict, "invalid_phase", err.Error(), nil)
		}
		return
	}

	c.Set("jobId", job.ID)
	c.Set("taskId", job.TaskID)
	c.Set("phaseTransition", string(job.Phase))
	if job.Phase == PhaseFailed {
		respond.Error(c, http.StatusBadGateway, "submission_failed", job.LastError, nil)
		return
	}
	respond.OK(c, job)
}

func (h *Handler) status(c *gin.Context) {
	job := h.Svc.Status()
	if job.ID != "" {
		c.Set("jobId", job.ID)
	}
	respond.OK(c, job)
}

func (h *Handler) reset(c *gin.Context) {
	respond.OK(c, h.Svc.Reset(c.Request.Context()))
}
