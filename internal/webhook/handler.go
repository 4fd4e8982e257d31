package webhook

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/shared/server/respond"
)

type Handler struct {
	Settings Settings
}

func NewHandler(settings Settings) *Handler {
	return &Handler{Settings: settings}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/webhook", h.get)
	rg.PUT("/settings/webhook", h.put)
}

func (h *Handler) get(c *gin.Context) {
	configured, err := h.Settings.GetURL(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load webhook settings", nil)
		return
	}
	respond.OK(c, gin.H{"url": configured, "configured": configured != ""})
}

func (h *Handler) put(c *gin.Context) {
	var body struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	// An empty URL clears the configuration.
	trimmed := strings.TrimSpace(body.URL)
	if trimmed != "" {
		parsed, err := url.Parse(trimmed)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			respond.Error(c, http.StatusBadRequest, "validation_error", "webhook url must be an absolute http(s) url", []map[string]string{
				{"field": "url", "issue": "invalid"},
			})
			return
		}
	}

	if err := h.Settings.SetURL(c.Request.Context(), trimmed); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save webhook settings", nil)
		return
	}
	respond.OK(c, gin.H{"url": trimmed, "configured": trimmed != ""})
}
