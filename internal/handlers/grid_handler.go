package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/mppl/dashboard/internal/errors"
	"github.com/stwalsh4118/mppl/dashboard/internal/export"
	"github.com/stwalsh4118/mppl/dashboard/internal/filter"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/middleware"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
	"github.com/stwalsh4118/mppl/dashboard/internal/pagination"
)

// GridRegistry mounts and finds grid pages.
type GridRegistry interface {
	MountGrid() *pages.GridPage
	Grid(id string) (*pages.GridPage, error)
	Unmount(id string, kind pages.Kind) error
}

// GridHandler exposes grid page sessions over HTTP.
type GridHandler struct {
	registry GridRegistry
}

// NewGridHandler creates a new GridHandler instance.
func NewGridHandler(registry GridRegistry) *GridHandler {
	return &GridHandler{registry: registry}
}

// FiltersRequest replaces the search term and date range of a grid.
// Dates are calendar days; the range applies only when both are given.
type FiltersRequest struct {
	Search string `json:"search" binding:"max=128"`
	Start  string `json:"start" binding:"omitempty,datetime=2006-01-02"`
	End    string `json:"end" binding:"omitempty,datetime=2006-01-02"`
}

// PageSizeRequest selects the grid page size.
type PageSizeRequest struct {
	PageSize int `json:"pageSize" binding:"required,oneof=10 20 50"`
}

// RowURI identifies a displayed row of a grid.
type RowURI struct {
	ID  string `uri:"id" binding:"required,uuid"`
	Row int    `uri:"row" binding:"min=0"`
}

// Mount handles POST /api/v1/grid.
func (h *GridHandler) Mount(c *gin.Context) {
	page := h.registry.MountGrid()
	requestLogger(c).Info("Grid page mounted", logger.Fields{"session_id": page.ID()})

	waitIfAsked(c, page)
	h.render(c, http.StatusCreated, page)
}

// Get handles GET /api/v1/grid/:id.
func (h *GridHandler) Get(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	waitIfAsked(c, page)
	h.render(c, http.StatusOK, page)
}

// Unmount handles DELETE /api/v1/grid/:id.
func (h *GridHandler) Unmount(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid session id")
		return
	}
	if err := h.registry.Unmount(uri.ID, pages.KindGrid); err != nil {
		pageError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetFilters handles PUT /api/v1/grid/:id/filters.
func (h *GridHandler) SetFilters(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid filters")
		return
	}
	r, err := req.dateRange()
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	h.apply(c, page, func() error {
		return page.SetCriteria(filter.Criteria{Search: req.Search, Range: r})
	})
}

// SetPageSize handles PUT /api/v1/grid/:id/page-size.
func (h *GridHandler) SetPageSize(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	var req PageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid page size")
		return
	}

	h.apply(c, page, func() error {
		return page.SetPageSize(pagination.PageSize(req.PageSize))
	})
}

// Reload handles POST /api/v1/grid/:id/reload.
func (h *GridHandler) Reload(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	h.apply(c, page, page.Reload)
}

// Select handles POST /api/v1/grid/:id/rows/:row/select.
func (h *GridHandler) Select(c *gin.Context) {
	var uri RowURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid row")
		return
	}
	page, err := h.registry.Grid(uri.ID)
	if err != nil {
		pageError(c, err)
		return
	}
	h.apply(c, page, func() error { return page.Select(uri.Row) })
}

// Back handles POST /api/v1/grid/:id/back.
func (h *GridHandler) Back(c *gin.Context) {
	h.action(c, (*pages.GridPage).Back)
}

// Edit handles POST /api/v1/grid/:id/edit.
func (h *GridHandler) Edit(c *gin.Context) {
	h.action(c, (*pages.GridPage).Edit)
}

// Save handles POST /api/v1/grid/:id/save.
// A draft that fails validation is answered with 422 and the prompt is
// raised on the page.
func (h *GridHandler) Save(c *gin.Context) {
	h.action(c, (*pages.GridPage).Save)
}

// Cancel handles POST /api/v1/grid/:id/cancel.
func (h *GridHandler) Cancel(c *gin.Context) {
	h.action(c, (*pages.GridPage).Cancel)
}

// Acknowledge handles POST /api/v1/grid/:id/acknowledge.
func (h *GridHandler) Acknowledge(c *gin.Context) {
	h.action(c, (*pages.GridPage).Acknowledge)
}

// UpdateDraft handles PATCH /api/v1/grid/:id/draft.
func (h *GridHandler) UpdateDraft(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	var in pages.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err, "Invalid draft")
		return
	}

	h.apply(c, page, func() error { return page.UpdateDraft(in) })
}

// Export handles GET /api/v1/grid/:id/export.xlsx.
// The workbook holds the rows currently displayed.
func (h *GridHandler) Export(c *gin.Context) {
	page, ok := h.page(c)
	if !ok {
		return
	}

	view, err := page.View()
	if err != nil {
		pageError(c, err)
		return
	}
	data, err := export.GridWorkbook(view)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build workbook", err)
		return
	}
	sendXLSX(c, export.GridFilename(page.ID()), data)
}

func (h *GridHandler) page(c *gin.Context) (*pages.GridPage, bool) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindError(c, err, "Invalid session id")
		return nil, false
	}
	page, err := h.registry.Grid(uri.ID)
	if err != nil {
		pageError(c, err)
		return nil, false
	}
	return page, true
}

func (h *GridHandler) action(c *gin.Context, fn func(*pages.GridPage) error) {
	page, ok := h.page(c)
	if !ok {
		return
	}
	h.apply(c, page, func() error { return fn(page) })
}

// apply runs fn and answers with the resulting view.
func (h *GridHandler) apply(c *gin.Context, page *pages.GridPage, fn func() error) {
	if err := fn(); err != nil {
		pageError(c, err)
		return
	}
	waitIfAsked(c, page)
	h.render(c, http.StatusOK, page)
}

func (h *GridHandler) render(c *gin.Context, status int, page *pages.GridPage) {
	view, err := page.View()
	if err != nil {
		pageError(c, err)
		return
	}
	c.JSON(status, view)
}

func (r FiltersRequest) dateRange() (filter.DateRange, error) {
	var out filter.DateRange
	if r.Start != "" {
		d, err := models.ParseDate(r.Start)
		if err != nil {
			return out, err
		}
		out.Start = &d
	}
	if r.End != "" {
		d, err := models.ParseDate(r.End)
		if err != nil {
			return out, err
		}
		out.End = &d
	}
	return out, nil
}

// RegisterRoutes mounts the grid endpoints under rg.
func (h *GridHandler) RegisterRoutes(rg *gin.RouterGroup) {
	grid := rg.Group("/grid")
	grid.POST("", h.Mount)

	session := grid.Group("/:id", middleware.PageSession(string(pages.KindGrid)))
	{
		session.GET("", h.Get)
		session.DELETE("", h.Unmount)
		session.PUT("/filters", h.SetFilters)
		session.PUT("/page-size", h.SetPageSize)
		session.POST("/reload", h.Reload)
		session.POST("/rows/:row/select", h.Select)
		session.POST("/back", h.Back)
		session.POST("/edit", h.Edit)
		session.PATCH("/draft", h.UpdateDraft)
		session.POST("/save", h.Save)
		session.POST("/cancel", h.Cancel)
		session.POST("/acknowledge", h.Acknowledge)
		session.GET("/export.xlsx", h.Export)
	}
}
