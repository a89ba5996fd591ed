package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func featureApp() *fiber.App {
	app := fiber.New()
	app.Post("/feature-requests", HandleCreateFeatureRequest)
	app.Get("/feature-requests", HandleListFeatureRequests)
	app.Get("/feature-requests/:id", HandleGetFeatureRequest)
	app.Post("/feature-requests/:id/vote", HandleVoteFeatureRequest)
	app.Patch("/feature-requests/:id/status", HandleUpdateFeatureRequestStatus)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateFeatureRequest(t *testing.T) {
	newTestDeps(t, nil)
	app := featureApp()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/feature-requests",
		`{"title":"Export bookings to CSV","description":"For the monthly report","submitted_by":"dennis"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "Export bookings to CSV", payload["title"])
	assert.Equal(t, "open", payload["status"])
	assert.Equal(t, float64(0), payload["votes"])
}

func TestCreateFeatureRequest_ValidationFails(t *testing.T) {
	newTestDeps(t, nil)
	app := featureApp()

	tests := []struct {
		name string
		body string
	}{
		{"title too short", `{"title":"ab","description":"x"}`},
		{"missing description", `{"title":"A real title"}`},
		{"not json", `title=nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPost, "/feature-requests", tt.body))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestVoteFeatureRequest(t *testing.T) {
	_, _, _, featureRepo := newTestDeps(t, nil)
	app := featureApp()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/feature-requests",
		`{"title":"Nightly sync window","description":"Sync outside office hours"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/feature-requests/1/vote", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decodeBody(t, resp)["votes"])

	stored, err := featureRepo.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Votes)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/feature-requests/99/vote", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateFeatureRequestStatus(t *testing.T) {
	newTestDeps(t, nil)
	app := featureApp()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/feature-requests",
		`{"title":"Dark mode for the board","description":"Please"}`))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPatch, "/feature-requests/1/status", `{"status":"planned"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "planned", decodeBody(t, resp)["status"])

	resp, err = app.Test(jsonRequest(http.MethodPatch, "/feature-requests/1/status", `{"status":"someday"}`))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListFeatureRequests_RejectsUnknownStatusFilter(t *testing.T) {
	newTestDeps(t, nil)
	app := featureApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/feature-requests?status=bogus", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
