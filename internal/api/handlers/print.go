package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printgate/printgate/internal/db"
	"github.com/printgate/printgate/internal/dispatch"
	"github.com/printgate/printgate/internal/webhook"
)

// Dispatcher is the capability the print endpoint needs from the core.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *dispatch.JobRequest) dispatch.Result
}

type EventSender interface {
	SendDeliveryEvent(data webhook.DeliveryEventData)
}

type PrintHandler struct {
	dispatcher Dispatcher
	sender     EventSender
	log        *zap.Logger
}

type PrintResponse struct {
	JobID   string        `json:"job_id"`
	Success bool          `json:"success"`
	Mode    dispatch.Mode `json:"mode,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func NewPrintHandler(dispatcher Dispatcher, sender EventSender, log *zap.Logger) *PrintHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PrintHandler{
		dispatcher: dispatcher,
		sender:     sender,
		log:        log,
	}
}

func (h *PrintHandler) Print(c *gin.Context) {
	var job dispatch.JobRequest
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, PrintResponse{Success: false, Error: "invalid request body"})
		return
	}

	jobID := uuid.NewString()
	start := time.Now()

	result := h.dispatcher.Dispatch(c.Request.Context(), &job)

	durationMS := time.Since(start).Milliseconds()
	h.record(c, jobID, &job, result, durationMS)
	h.notify(jobID, &job, result, durationMS)

	status := http.StatusOK
	if !result.Success {
		if dispatch.IsValidationError(result.Err) {
			status = http.StatusBadRequest
		} else {
			status = http.StatusBadGateway
		}
	}

	c.JSON(status, PrintResponse{
		JobID:   jobID,
		Success: result.Success,
		Mode:    result.Mode,
		Message: result.Message,
		Error:   result.Error,
	})
}

func (h *PrintHandler) record(c *gin.Context, jobID string, job *dispatch.JobRequest, result dispatch.Result, durationMS int64) {
	if db.GetDB() == nil {
		return
	}

	delivery := &db.Delivery{
		JobID:       jobID,
		Mode:        string(result.Mode),
		Target:      jobTarget(job),
		Success:     result.Success,
		Message:     result.Message,
		Error:       result.Error,
		DurationMS:  durationMS,
		SubmittedBy: c.ClientIP(),
	}

	if err := db.Deliveries.CreateDelivery(c.Request.Context(), delivery); err != nil {
		h.log.Error("failed to record delivery", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (h *PrintHandler) notify(jobID string, job *dispatch.JobRequest, result dispatch.Result, durationMS int64) {
	if h.sender == nil {
		return
	}

	h.sender.SendDeliveryEvent(webhook.DeliveryEventData{
		JobID:      jobID,
		Mode:       string(result.Mode),
		Target:     jobTarget(job),
		Success:    result.Success,
		Error:      result.Error,
		DurationMS: durationMS,
	})
}

func jobTarget(job *dispatch.JobRequest) string {
	if addr := job.Address(); addr != "" {
		return addr
	}
	return job.PrinterName
}

func (h *PrintHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/print", h.Print)
}
