package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgate/printgate/internal/db"
)

func historyRouter() *gin.Engine {
	r := gin.New()
	NewHistoryHandler().RegisterRoutes(r.Group("/api/v1"))
	return r
}

func seedDelivery(t *testing.T, mode string, success bool) *db.Delivery {
	t.Helper()
	d := &db.Delivery{
		JobID:   uuid.NewString(),
		Mode:    mode,
		Target:  "192.168.1.50:9100",
		Success: success,
		Message: "raw bytes delivered",
	}
	require.NoError(t, db.Deliveries.CreateDelivery(context.Background(), d))
	return d
}

func TestGetDelivery(t *testing.T) {
	seeded := seedDelivery(t, "tcp", true)
	r := historyRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+seeded.JobID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got db.Delivery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, seeded.JobID, got.JobID)
	assert.Equal(t, "tcp", got.Mode)
	assert.True(t, got.Success)
}

func TestGetDelivery_NotFound(t *testing.T) {
	r := historyRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListDeliveries_ModeFilter(t *testing.T) {
	seedDelivery(t, "ipp", true)
	seedDelivery(t, "ipp", false)
	r := historyRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?mode=ipp", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Deliveries []*db.Delivery `json:"deliveries"`
		Count      int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, d := range resp.Deliveries {
		assert.Equal(t, "ipp", d.Mode)
	}
}

func TestListDeliveries_LimitCapped(t *testing.T) {
	r := historyRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=500", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
