package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgate/printgate/internal/db"
	"github.com/printgate/printgate/internal/dispatch"
	"github.com/printgate/printgate/internal/webhook"
)

type fakeDispatcher struct {
	result dispatch.Result
	gotJob *dispatch.JobRequest
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, job *dispatch.JobRequest) dispatch.Result {
	f.gotJob = job
	return f.result
}

type fakeSender struct {
	events []webhook.DeliveryEventData
}

func (f *fakeSender) SendDeliveryEvent(data webhook.DeliveryEventData) {
	f.events = append(f.events, data)
}

func printRouter(dispatcher Dispatcher, sender EventSender) *gin.Engine {
	r := gin.New()
	h := NewPrintHandler(dispatcher, sender, nil)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doPrint(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, PrintResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp PrintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestPrint_Success(t *testing.T) {
	d := &fakeDispatcher{result: dispatch.Result{
		Success: true,
		Mode:    dispatch.ModeOS,
		Message: "document spooled",
	}}
	sender := &fakeSender{}
	r := printRouter(d, sender)

	w, resp := doPrint(t, r, `{"mode":"os","printerName":"office-laser","fileBase64":"application/pdf;base64,JVBERi0x"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, dispatch.ModeOS, resp.Mode)
	assert.Equal(t, "document spooled", resp.Message)
	assert.Empty(t, resp.Error)
	require.NotEmpty(t, resp.JobID)

	require.NotNil(t, d.gotJob)
	assert.Equal(t, "office-laser", d.gotJob.PrinterName)

	// The outcome is recorded in history.
	delivery, err := db.Deliveries.GetDeliveryByJobID(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.True(t, delivery.Success)
	assert.Equal(t, "os", delivery.Mode)
	assert.Equal(t, "office-laser", delivery.Target)

	// And fanned out as a completion event.
	require.Len(t, sender.events, 1)
	assert.Equal(t, resp.JobID, sender.events[0].JobID)
	assert.True(t, sender.events[0].Success)
}

func TestPrint_ValidationFailureMapsToBadRequest(t *testing.T) {
	err := dispatch.ErrMissingField
	d := &fakeDispatcher{result: dispatch.Result{
		Success: false,
		Mode:    dispatch.ModeTCP,
		Error:   err.Error(),
		Err:     err,
	}}
	r := printRouter(d, nil)

	w, resp := doPrint(t, r, `{"mode":"tcp","printerAddress":"192.168.1.50"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestPrint_DeliveryFailureMapsToBadGateway(t *testing.T) {
	err := dispatch.ErrConnectionFailed
	d := &fakeDispatcher{result: dispatch.Result{
		Success: false,
		Mode:    dispatch.ModeTCP,
		Error:   err.Error(),
		Err:     err,
	}}
	sender := &fakeSender{}
	r := printRouter(d, sender)

	w, resp := doPrint(t, r, `{"mode":"tcp","printerAddress":"192.168.1.50","raw":"TEST"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, resp.Success)

	require.Len(t, sender.events, 1)
	assert.False(t, sender.events[0].Success)
	assert.Equal(t, "192.168.1.50", sender.events[0].Target)
}

func TestPrint_MalformedBody(t *testing.T) {
	d := &fakeDispatcher{}
	r := printRouter(d, nil)

	w, resp := doPrint(t, r, `{"mode":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid request body", resp.Error)
	assert.Nil(t, d.gotJob, "dispatcher must not run on a malformed body")
}

func TestPrint_LegacyAddressAlias(t *testing.T) {
	d := &fakeDispatcher{result: dispatch.Result{Success: true, Mode: dispatch.ModeTCP, Message: "raw bytes delivered"}}
	sender := &fakeSender{}
	r := printRouter(d, sender)

	w, _ := doPrint(t, r, `{"mode":"tcp","printerIp":"192.168.1.60","raw":"TEST"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, d.gotJob)
	assert.Equal(t, "192.168.1.60", d.gotJob.Address())
	require.Len(t, sender.events, 1)
	assert.Equal(t, "192.168.1.60", sender.events[0].Target)
}
