package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printgate/printgate/internal/db"
)

type HistoryHandler struct{}

type ListHistoryQuery struct {
	Mode   string `form:"mode"`
	Limit  int    `form:"limit" binding:"max=100"`
	Offset int    `form:"offset"`
}

func NewHistoryHandler() *HistoryHandler {
	return &HistoryHandler{}
}

func (h *HistoryHandler) ListDeliveries(c *gin.Context) {
	var query ListHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if query.Limit <= 0 {
		query.Limit = 50
	}

	deliveries, err := db.Deliveries.ListDeliveries(c.Request.Context(), db.DeliveryFilter{
		Mode:   query.Mode,
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to list deliveries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deliveries": deliveries,
		"count":      len(deliveries),
		"limit":      query.Limit,
		"offset":     query.Offset,
	})
}

func (h *HistoryHandler) GetDelivery(c *gin.Context) {
	jobID := c.Param("id")

	delivery, err := db.Deliveries.GetDeliveryByJobID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Delivery not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to get delivery"})
		return
	}

	c.JSON(http.StatusOK, delivery)
}

func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history", h.ListDeliveries)
	r.GET("/history/:id", h.GetDelivery)
}
