package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
	"github.com/GoSim-25-26J-441/projects-backend/internal/projects/domain"
)

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	page, limit := pagination.DefaultPage, pagination.DefaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	var regions []string
	regions = append(regions, c.QueryArray("chinaRegion[]")...)
	regions = append(regions, c.QueryArray("chinaRegion")...)

	res, err := h.svc.FindMany(c.Request.Context(), domain.ListParams{
		Page:    page,
		Limit:   limit,
		Search:  q.Search,
		Regions: regions,
	})
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) create(c *gin.Context) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.svc.Create(c.Request.Context(), domain.CreateInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.fail(c, "create project", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "project created", "data": p})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "invalid body")
		return
	}

	p, err := h.svc.Update(c.Request.Context(), domain.UpdateInput{ID: req.ID, Name: req.Name, Description: req.Description})
	if err != nil {
		h.fail(c, "update project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "project updated", "data": p})
}

func (h *Handler) delete(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}

	if _, err := h.svc.Delete(c.Request.Context(), req.ID); err != nil {
		h.fail(c, "delete project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "project deleted"})
}

func (h *Handler) createBatch(c *gin.Context) {
	var req []projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	if len(req) == 0 {
		badRequest(c, "at least one project is required")
		return
	}

	in := make([]domain.CreateInput, 0, len(req))
	for i, item := range req {
		if strings.TrimSpace(item.Name) == "" || len([]rune(item.Name)) > domain.MaxNameLength {
			badRequest(c, fmt.Sprintf("item %d: invalid name", i))
			return
		}
		if item.Description != nil && len([]rune(*item.Description)) > domain.MaxDescriptionLength {
			badRequest(c, fmt.Sprintf("item %d: description too long", i))
			return
		}
		in = append(in, domain.CreateInput{Name: item.Name, Description: item.Description})
	}

	res, err := h.svc.CreateMany(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "batch create projects", err)
		return
	}

	message := fmt.Sprintf("created %d projects", len(res.Inserted))
	if len(res.Skipped) > 0 {
		message = fmt.Sprintf("created %d projects, skipped %d duplicates", len(res.Inserted), len(res.Skipped))
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"created":      len(res.Inserted),
			"skipped":      len(res.Skipped),
			"skippedNames": res.Skipped,
		},
	})
}

func (h *Handler) deleteBatch(c *gin.Context) {
	var ids []int64
	if err := c.ShouldBindJSON(&ids); err != nil || len(ids) == 0 {
		badRequest(c, "at least one id is required")
		return
	}
	for _, id := range ids {
		if id < 1 {
			badRequest(c, "ids must be positive integers")
			return
		}
	}

	n, err := h.svc.DeleteMany(c.Request.Context(), ids)
	if err != nil {
		h.fail(c, "batch delete projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("deleted %d projects", n),
		"data":    gin.H{"deleted": n},
	})
}

func (h *Handler) deleteAll(c *gin.Context) {
	n, err := h.svc.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, "delete all projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("deleted all projects, %d removed", n),
		"data":    gin.H{"deleted": n},
	})
}

func (h *Handler) excludeNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.svc.ExcludeNames()})
}

// fail maps service errors to status codes. Anything unrecognised is logged
// and reported as a generic 500.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrDuplicateName):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": domain.ErrDuplicateName.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
