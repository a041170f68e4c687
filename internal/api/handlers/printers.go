package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrinterLister is the OS printer-list capability.
type PrinterLister interface {
	List(ctx context.Context) ([]string, error)
	Default(ctx context.Context) (string, error)
}

type PrinterHandler struct {
	lister PrinterLister
}

type PrintersResponse struct {
	Printers []string `json:"printers"`
	Default  string   `json:"default,omitempty"`
}

func NewPrinterHandler(lister PrinterLister) *PrinterHandler {
	return &PrinterHandler{lister: lister}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	names, err := h.lister.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "printer_list_error",
			Message: "Failed to list printers",
		})
		return
	}

	// The default printer is informational; listing still succeeds
	// without one.
	def, _ := h.lister.Default(c.Request.Context())

	c.JSON(http.StatusOK, PrintersResponse{Printers: names, Default: def})
}

func (h *PrinterHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/printers", h.ListPrinters)
}
