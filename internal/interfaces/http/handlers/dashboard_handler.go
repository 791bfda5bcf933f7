package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/application/dashboard"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// DashboardHandler serves the analytics views.
type DashboardHandler struct {
	svc    *dashboard.Service
	logger logging.Logger
}

// NewDashboardHandler builds the handler set.
func NewDashboardHandler(svc *dashboard.Service, log logging.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: log}
}

// ListDatasets handles GET /conferences.
func (h *DashboardHandler) ListDatasets(c *gin.Context) {
	infos, err := h.svc.ListDatasets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": infos})
}

// Summary handles GET /conferences/:conference/:year/summary.
func (h *DashboardHandler) Summary(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.svc.Summary(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Countries handles GET /conferences/:conference/:year/countries.
func (h *DashboardHandler) Countries(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	agg, err := h.svc.Countries(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": agg})
}

// USChinaRest handles GET /conferences/:conference/:year/countries/us-china-rest.
func (h *DashboardHandler) USChinaRest(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	chart, err := h.svc.USChinaRest(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chart": chart})
}

// Regional handles GET /conferences/:conference/:year/countries/regional.
func (h *DashboardHandler) Regional(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	chart, err := h.svc.Regional(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chart": chart})
}

// TopCountries handles GET /conferences/:conference/:year/countries/top.
// Query parameters: n (slice size, default from config) and include_focus.
func (h *DashboardHandler) TopCountries(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}

	n := 0
	if raw := c.Query("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, errors.InvalidParam("n must be a positive integer").WithDetail(raw))
			return
		}
	}
	includeFocus := c.DefaultQuery("include_focus", "true") == "true"

	view, err := h.svc.TopCountries(c.Request.Context(), key, n, includeFocus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Institutions handles GET /conferences/:conference/:year/institutions.
// The q query parameter filters by case-insensitive substring.
func (h *DashboardHandler) Institutions(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	insts, err := h.svc.Institutions(c.Request.Context(), key, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"institutions": insts})
}

// Composition handles GET /conferences/:conference/:year/composition.
func (h *DashboardHandler) Composition(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comp, err := h.svc.Composition(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// Export handles GET /conferences/:conference/:year/export/:kind.
func (h *DashboardHandler) Export(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	kind := c.Param("kind")

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition",
		`attachment; filename="`+key.String()+`-`+kind+`.csv"`)
	if err := h.svc.ExportCSV(c.Request.Context(), key, kind, c.Writer); err != nil {
		// Nothing has been written yet for an unknown kind; missing datasets
		// also fail before the first byte.
		c.Header("Content-Type", "application/json")
		c.Header("Content-Disposition", "")
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Refresh handles POST /conferences/:conference/:year/refresh.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	key, err := datasetKey(c)
	if err != nil {
		respondError(c, err)
		return
	}
	deleted, err := h.svc.Refresh(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"invalidated": deleted})
}
