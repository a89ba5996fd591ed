package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
)

func syncApp() *fiber.App {
	app := fiber.New()
	app.Get("/microsites", HandleListMicrosites)
	app.Get("/microsites/:config/bookings", HandleGetMicrositeBookings)
	app.Post("/microsites/:config/sync", HandleForceSync)
	return app
}

func TestListMicrosites_ReportsCacheState(t *testing.T) {
	d, _, _, _ := newTestDeps(t, map[int]bookingstore.BookingFetcher{
		1: &stubFetcher{microsite: "reisbureau"},
		3: &stubFetcher{microsite: "zakelijk"},
	})
	app := syncApp()

	require.NoError(t, d.Sync.Store().StoreAllBookings(context.Background(), 1, []compositor.Booking{
		parseBooking(t, `{"id":"RRP-1"}`),
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/microsites", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	microsites, ok := payload["microsites"].([]any)
	require.True(t, ok)
	require.Len(t, microsites, 2)

	first := microsites[0].(map[string]any)
	assert.Equal(t, float64(1), first["config"])
	assert.Equal(t, "reisbureau", first["microsite"])
	assert.Equal(t, true, first["cache_valid"])
	assert.NotNil(t, first["last_sync"])

	second := microsites[1].(map[string]any)
	assert.Equal(t, float64(3), second["config"])
	assert.Equal(t, false, second["cache_valid"])
	assert.Nil(t, second["last_sync"])
}

func TestGetMicrositeBookings_SyncsOnDemand(t *testing.T) {
	newTestDeps(t, map[int]bookingstore.BookingFetcher{
		1: &stubFetcher{
			microsite: "reisbureau",
			bookings: []compositor.Booking{
				parseBooking(t, `{"id":"RRP-1"}`),
				parseBooking(t, `{"id":"RRP-2"}`),
			},
		},
	})
	app := syncApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/microsites/1/bookings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, float64(2), payload["count"])
	assert.Equal(t, "reisbureau", payload["microsite"])
}

func TestGetMicrositeBookings_UnknownConfig(t *testing.T) {
	newTestDeps(t, map[int]bookingstore.BookingFetcher{
		1: &stubFetcher{microsite: "reisbureau"},
	})
	app := syncApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/microsites/7/bookings", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestForceSync_InvalidatesAndQueues(t *testing.T) {
	d, queue, _, _ := newTestDeps(t, map[int]bookingstore.BookingFetcher{
		1: &stubFetcher{microsite: "reisbureau"},
	})
	app := syncApp()

	ctx := context.Background()
	require.NoError(t, d.Sync.Store().StoreAllBookings(ctx, 1, []compositor.Booking{
		parseBooking(t, `{"id":"RRP-1"}`),
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/microsites/1/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "job-1", payload["job_id"])

	assert.False(t, d.Sync.Store().IsCacheValid(ctx, 1), "forced sync must drop the cache first")
	assert.Equal(t, []int{1}, queue.enqueuedConfigs())
}
