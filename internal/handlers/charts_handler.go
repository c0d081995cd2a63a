package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/mppl/dashboard/internal/errors"
	"github.com/stwalsh4118/mppl/dashboard/internal/export"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/middleware"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
)

// ChartsRegistry mounts and finds charts pages.
type ChartsRegistry interface {
	MountCharts() *pages.ChartsPage
	Charts(id string) (*pages.ChartsPage, error)
	Unmount(id string, kind pages.Kind) error
}

// ChartsHandler exposes charts page sessions over HTTP.
type ChartsHandler struct {
	registry ChartsRegistry
}

// NewChartsHandler creates a new ChartsHandler instance.
func NewChartsHandler(registry ChartsRegistry) *ChartsHandler {
	return &ChartsHandler{registry: registry}
}

// StatusFilterRequest selects the status counted by the chart, or "all".
type StatusFilterRequest struct {
	Status string `json:"status" binding:"required,max=64"`
}

// Mount handles POST /api/v1/charts.
func (h *ChartsHandler) Mount(c *gin.Context) {
	page := h.registry.MountCharts()
	requestLogger(c).Info("Charts page mounted", logger.Fields{"session_id": page.ID()})

	waitIfAsked(c, page)
	h.render(c, http.StatusCreated, page)
}

// Get handles GET /api/v1/charts/:id.
func (h *ChartsHandler) Get(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	waitIfAsked(c, page)
	h.render(c, http.StatusOK, page)
}

// Unmount handles DELETE /api/v1/charts/:id.
func (h *ChartsHandler) Unmount(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid session id")
		return
	}
	if err := h.registry.Unmount(uri.ID, pages.KindCharts); err != nil {
		pageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStatusFilter handles PUT /api/v1/charts/:id/status-filter.
func (h *ChartsHandler) SetStatusFilter(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	var req StatusFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid status filter")
		return
	}
	if err := page.SetStatusFilter(req.Status); err != nil {
		pageError(c, err)
		return
	}

	waitIfAsked(c, page)
	h.render(c, http.StatusOK, page)
}

// Export handles GET /api/v1/charts/:id/export.xlsx.
func (h *ChartsHandler) Export(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	view, err := page.View()
	if err != nil {
		pageError(c, err)
		return
	}
	data, err := export.ChartWorkbook(view)
	if err != nil {
		if errors.Is(err, export.ErrNotLoaded) {
			pageError(c, err)
			return
		}
		apierrors.InternalServerError(c, "Failed to build workbook", err)
		return
	}
	sendXLSX(c, export.ChartFilename(page.ID()), data)
}

func (h *ChartsHandler) page(c *gin.Context) (*pages.ChartsPage, bool) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid session id")
		return nil, false
	}
	page, err := h.registry.Charts(uri.ID)
	if err != nil {
		pageError(c, err)
		return nil, false
	}
	return page, true
}

func (h *ChartsHandler) render(c *gin.Context, status int, page *pages.ChartsPage) {
	view, err := page.View()
	if err != nil {
		pageError(c, err)
		return
	}
	c.JSON(status, view)
}

// RegisterRoutes mounts the charts endpoints under rg.
func (h *ChartsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	charts := rg.Group("/charts")
	charts.POST("", h.Mount)

	session := charts.Group("/:id", middleware.PageSession(string(pages.KindCharts)))
	{
		session.GET("", h.Get)
		session.DELETE("", h.Unmount)
		session.PUT("/status-filter", h.SetStatusFilter)
		session.GET("/export.xlsx", h.Export)
	}
}
