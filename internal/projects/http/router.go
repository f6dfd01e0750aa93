package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/exclude-names", h.excludeNames)
	rg.POST("/add", h.create)
	rg.POST("/add/batch", h.createBatch)
	rg.PUT("/update", h.update)
	rg.DELETE("/delete", h.delete)
	rg.DELETE("/delete/batch", h.deleteBatch)
	rg.DELETE("/delete/all", h.deleteAll)
}
