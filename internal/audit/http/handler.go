package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/projects-backend/internal/audit/domain"
	"github.com/GoSim-25-26J-441/projects-backend/internal/logging"
	"github.com/GoSim-25-26J-441/projects-backend/internal/pagination"
)

type LogService interface {
	List(ctx context.Context, q domain.Query) (*domain.ListResult, error)
	Stats(ctx context.Context) ([]domain.Stat, error)
}

// Handler serves the read-only audit log endpoints.
type Handler struct {
	svc LogService
}

func New(svc LogService) *Handler {
	return &Handler{svc: svc}
}

// Register attaches the log routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/stats", h.stats)
}

func (h *Handler) list(c *gin.Context) {
	q := domain.Query{
		Page:      lenientInt(c.Query("page"), pagination.DefaultPage),
		Limit:     lenientInt(c.Query("limit"), pagination.DefaultLimit),
		Operation: strings.TrimSpace(c.Query("operation")),
		TableName: strings.TrimSpace(c.Query("tableName")),
	}
	if q.Limit > pagination.MaxLimit {
		q.Limit = pagination.MaxLimit
	}
	if q.Operation != "" && !domain.Operation(q.Operation).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown operation"})
		return
	}

	var err error
	if q.StartDate, err = parseDate(c.Query("startDate")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid startDate"})
		return
	}
	if q.EndDate, err = parseDate(c.Query("endDate")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid endDate"})
		return
	}

	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("list logs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("log stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// lenientInt falls back to def for missing, malformed or non-positive input.
func lenientInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	_, err := time.Parse(time.RFC3339, raw)
	return nil, err
}
