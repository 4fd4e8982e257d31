package records

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
)

type Handler struct {
	Repo Repo

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo, now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/records/count", h.count)
	rg.GET("/records/export.csv", h.exportCSV)
	rg.GET("/records/export.xlsx", h.exportXLSX)
	rg.DELETE("/records", h.clear)
}

func (h *Handler) count(c *gin.Context) {
	count, err := h.Repo.Count(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to count records", nil)
		return
	}
	respond.OK(c, gin.H{"count": count})
}

func (h *Handler) exportCSV(c *gin.Context) {
	recs, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load records", nil)
		return
	}
	if len(recs) == 0 {
		respond.Error(c, http.StatusNotFound, "no_records", "no records to export", nil)
		return
	}
	data, err := WriteCSV(recs)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render csv", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName(h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) exportXLSX(c *gin.Context) {
	recs, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load records", nil)
		return
	}
	if len(recs) == 0 {
		respond.Error(c, http.StatusNotFound, "no_records", "no records to export", nil)
		return
	}
	data, err := WriteXLSX(recs)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render workbook", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ExportXLSXFileName(h.now())+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.Repo.Clear(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear records", nil)
		return
	}
	respond.OK(c, gin.H{"cleared": true})
}
