package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/export"
	"salesintel/insights"
	"salesintel/models"
)

func testDeals() []models.Deal {
	deals := make([]models.Deal, 12)
	for i := range deals {
		created := time.Date(2024, time.Month(1+i), 5, 0, 0, 0, 0, time.UTC)
		outcome := []string{models.OutcomeWon, models.OutcomeLost, "open"}[i%3]
		deals[i] = models.Deal{
			ID:             fmt.Sprintf("D%d", i+1),
			CreatedDate:    &created,
			Outcome:        outcome,
			DealAmount:     float64(2000 + 500*i),
			SalesCycleDays: 20 + 5*i,
			LeadSource:     []string{"Inbound", "Outbound", "Partner", "Referral"}[i%4],
		}
	}
	return deals
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	prev := insights.Current()
	t.Cleanup(func() { insights.SetCurrent(prev) })

	s, err := insights.NewSession(context.Background(), testDeals())
	require.NoError(t, err)
	insights.SetCurrent(insights.NewEngine(s, nil))

	app := fiber.New()
	app.Get("/healthz", HandleHealthz)
	api := app.Group("/api/v1/insights")
	api.Post("/query", HandleQuery)
	api.Get("/suggestions", HandleGetSuggestions)
	api.Get("/metrics", HandleGetMetrics)
	api.Get("/risk", HandleGetRisk)
	api.Get("/health", HandleGetHealth)
	api.Get("/charts/:intent", HandleGetCharts)
	api.Get("/export/risk.parquet", HandleExportRisk)
	return app
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func postQuery(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/insights/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode, decode(t, resp.Body)
}

func TestHandleQuery(t *testing.T) {
	app := newTestApp(t)

	status, body := postQuery(t, app, `{"query": "Why is our win rate dropping?"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "win_rate", data["intent"])
	assert.Equal(t, models.SourceDeterministic, data["source"])
	assert.Len(t, data["charts"], 2)
	narrative := data["narrative"].(map[string]any)
	assert.NotEmpty(t, narrative["executive_summary"])
}

func TestHandleQueryRejections(t *testing.T) {
	app := newTestApp(t)

	status, body := postQuery(t, app, `{"query": "Tell me a joke"}`)
	assert.Equal(t, 422, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["suggestions"])

	status, _ = postQuery(t, app, `{"query": "   "}`)
	assert.Equal(t, 400, status)

	status, _ = postQuery(t, app, `{not json`)
	assert.Equal(t, 400, status)
}

func TestHandleQueryWithoutSession(t *testing.T) {
	app := newTestApp(t)
	insights.SetCurrent(nil)

	status, _ := postQuery(t, app, `{"query": "pipeline health"}`)
	assert.Equal(t, 503, status)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleGetEndpoints(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/healthz",
		"/api/v1/insights/suggestions",
		"/api/v1/insights/metrics",
		"/api/v1/insights/health",
		"/api/v1/insights/charts/risk",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode, path)
	}
}

func TestHandleGetRisk(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/insights/risk", nil))
	require.NoError(t, err)
	data := decode(t, resp.Body)["data"].(map[string]any)
	assert.Contains(t, data, "summary")
	assert.NotContains(t, data, "deals")

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/insights/risk?deals=true", nil))
	require.NoError(t, err)
	data = decode(t, resp.Body)["data"].(map[string]any)
	assert.Len(t, data["deals"], len(testDeals()))
}

func TestHandleGetChartsUnknownIntent(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/insights/charts/forecast", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleExportRisk(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/insights/export/risk.parquet", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
}

func TestUnregisteredRouteNotFound(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/v1/merchant/invoices", nil))
	assert.Equal(t, 404, resp.StatusCode)
}
