package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/mppl/dashboard/internal/errors"
	"github.com/stwalsh4118/mppl/dashboard/internal/export"
	"github.com/stwalsh4118/mppl/dashboard/internal/logger"
	"github.com/stwalsh4118/mppl/dashboard/internal/middleware"
	"github.com/stwalsh4118/mppl/dashboard/internal/pages"
	"github.com/stwalsh4118/mppl/dashboard/internal/pagination"
	"github.com/stwalsh4118/mppl/dashboard/internal/session"
)

// SessionURI identifies a mounted page.
type SessionURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// WaitQuery is accepted by every mutating page endpoint. With wait set the
// response is sent only after the requests the action issued have landed.
type WaitQuery struct {
	Wait bool `form:"wait"`
}

// bindError responds to a failed bind with per-field messages when possible.
func bindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.InvalidRequest(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// pageError maps a page action failure to its HTTP response.
func pageError(c *gin.Context, err error) {
	var failure *session.ValidationFailure
	switch {
	case errors.As(err, &failure):
		apierrors.UnprocessableDraft(c, failure.Fields)
	case errors.Is(err, pages.ErrSessionNotFound), errors.Is(err, pages.ErrUnmounted):
		apierrors.NotFound(c, "Page session not found")
	case errors.Is(err, pages.ErrPromptPending),
		errors.Is(err, pages.ErrRecordNotFound),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, export.ErrNotLoaded):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, pages.ErrRowOutOfRange),
		errors.Is(err, session.ErrInvalidValue),
		errors.Is(err, pagination.ErrInvalidPageSize):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, "Failed to apply page action", err)
	}
}

type settler interface {
	Settle(ctx context.Context) error
}

// waitIfAsked blocks until p has applied its in-flight requests when the
// client passed wait=true. A client that gives up first is only logged.
func waitIfAsked(c *gin.Context, p settler) {
	var q WaitQuery
	if err := c.ShouldBindQuery(&q); err != nil || !q.Wait {
		return
	}
	if err := p.Settle(c.Request.Context()); err != nil {
		requestLogger(c).Warn("Stopped waiting for page requests", logger.Fields{
			"error": err.Error(),
		})
	}
}

// sendXLSX writes a workbook download.
func sendXLSX(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}

func requestLogger(c *gin.Context) *logger.Logger {
	if log := middleware.GetLogger(c); log != nil {
		return log
	}
	return logger.Nop()
}
