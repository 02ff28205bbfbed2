// Moment HTTP handlers.
//
// This file exposes the micro-blog endpoints:
//   - GET    /moments       (public, paginated, served through the cache)
//   - POST   /moments       (admin; create)
//   - POST   /moments/{id}  (admin; update content)
//   - DELETE /moments/{id}  (admin; delete)
//
// The listing handler writes the service's serialized payload directly so a
// cache hit is returned byte-for-byte as stored.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xiaohuihuib/Rin/internal/http/middleware"
	"github.com/xiaohuihuib/Rin/internal/services"
	"github.com/xiaohuihuib/Rin/internal/utils"
)

//
// DTOs
//

// MomentRequest is the JSON payload for creating or updating a moment.
type MomentRequest struct {
	// Content is the post body. It must be non-empty.
	Content string `json:"content" example:"Shipped the new cache layer today."`
}

// CreateMomentResponse is the JSON envelope for a newly created moment.
type CreateMomentResponse struct {
	ID uint `json:"id"`
}

//
// Helpers
//

// momentID parses the :id path parameter. A non-numeric id cannot reference
// any row, so it maps to 404 rather than 400.
func momentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

//
// Handlers
//

// ListMoments godoc
// @ID          listMoments
// @Summary     List moments
// @Description Returns one page of moments, newest first. The page size is
// @Description capped at 50 regardless of the requested limit.
// @Tags        Moments
// @Produce     json
// @Param       page   query  int  false  "Page number"      minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"   minimum(1) maximum(50) default(10)
// @Success     200  {object}  services.MomentPage
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /moments [get]
func (h *Handlers) ListMoments(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), 10)

	payload, err := h.momentSvc.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// CreateMoment godoc
// @ID          createMoment
// @Summary     Create a moment
// @Description Inserts a new moment owned by the authenticated admin and
// @Description invalidates every cached listing page.
// @Tags        Moments
// @Accept      json
// @Produce     json
// @Param       Authorization  header  string                  true  "Bearer token"
// @Param       body           body    handlers.MomentRequest  true  "Moment payload"
// @Success     200  {object}  handlers.CreateMomentResponse
// @Failure     400  {object}  handlers.ErrorResponse "Empty content"
// @Failure     401  {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse "Not an admin"
// @Router      /moments [post]
func (h *Handlers) CreateMoment(c *gin.Context) {
	var req MomentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	user := middleware.UserFrom(c)
	if user == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	id, err := h.momentSvc.Create(c.Request.Context(), user.ID, req.Content)
	if err != nil {
		switch err {
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, CreateMomentResponse{ID: id})
}

// UpdateMoment godoc
// @ID          updateMoment
// @Summary     Update a moment
// @Description Replaces the content of an existing moment and invalidates
// @Description every cached listing page.
// @Tags        Moments
// @Accept      json
// @Produce     json
// @Param       Authorization  header  string                  true  "Bearer token"
// @Param       id             path    int                     true  "Moment ID"
// @Param       body           body    handlers.MomentRequest  true  "Moment payload"
// @Success     204  "Updated"
// @Failure     400  {object}  handlers.ErrorResponse "Empty content"
// @Failure     401  {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse "Not an admin"
// @Failure     404  {object}  handlers.ErrorResponse "Moment not found"
// @Router      /moments/{id} [post]
func (h *Handlers) UpdateMoment(c *gin.Context) {
	id, okID := momentID(c)
	if !okID {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "moment not found")
		return
	}

	var req MomentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	if err := h.momentSvc.Update(c.Request.Context(), id, req.Content); err != nil {
		switch err {
		case services.ErrMomentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "moment not found")
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	noContent(c)
}

// DeleteMoment godoc
// @ID          deleteMoment
// @Summary     Delete a moment
// @Description Removes an existing moment and invalidates every cached
// @Description listing page.
// @Tags        Moments
// @Produce     json
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    int     true  "Moment ID"
// @Success     204  "Deleted"
// @Failure     401  {object}  handlers.ErrorResponse "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse "Not an admin"
// @Failure     404  {object}  handlers.ErrorResponse "Moment not found"
// @Router      /moments/{id} [delete]
func (h *Handlers) DeleteMoment(c *gin.Context) {
	id, okID := momentID(c)
	if !okID {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "moment not found")
		return
	}

	if err := h.momentSvc.Delete(c.Request.Context(), id); err != nil {
		switch err {
		case services.ErrMomentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "moment not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		}
		return
	}
	noContent(c)
}
