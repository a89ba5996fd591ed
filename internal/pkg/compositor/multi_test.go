package compositor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenantServer simulates one microsite. When booking is empty every lookup
// comes back empty; when failing is true every endpoint errors.
func tenantServer(t *testing.T, booking string, failing bool, hits *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		if failing {
			http.Error(w, "login broken", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok", "expirationInSeconds": 7200})
	})
	mux.HandleFunc("/booking/getBookings/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/booking/getBookings", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		page := bookingsPage{}
		if booking != "" {
			page.BookedTrips = []Booking{mkBooking(booking)}
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	return httptest.NewServer(mux)
}

func tenantClient(srv *httptest.Server, micrositeID string) *Client {
	creds := testCredentials(srv.URL)
	creds.MicrositeID = micrositeID
	return NewClient(creds)
}

func TestSearchBookingAcrossAllMicrosites_FirstMatchWins(t *testing.T) {
	var thirdHits int64

	first := tenantServer(t, "", true, nil) // errors, must be skipped
	second := tenantServer(t, "RRP-42", false, nil)
	third := tenantServer(t, "RRP-42", false, &thirdHits)
	defer first.Close()
	defer second.Close()
	defer third.Close()

	mc := NewMultiClient(
		tenantClient(first, "ms-1"),
		tenantClient(second, "ms-2"),
		tenantClient(third, "ms-3"),
	)

	booking, micrositeID, err := mc.SearchBookingAcrossAllMicrosites(context.Background(), "RRP-42", false)
	require.NoError(t, err)
	require.NotNil(t, booking)
	assert.Equal(t, "ms-2", micrositeID)
	assert.Equal(t, "RRP-42", booking.Ref())
	assert.Zero(t, atomic.LoadInt64(&thirdHits), "third tenant must not be contacted after a match")
}

func TestSearchBookingAcrossAllMicrosites_AllMiss(t *testing.T) {
	first := tenantServer(t, "", false, nil)
	second := tenantServer(t, "", true, nil)
	defer first.Close()
	defer second.Close()

	mc := NewMultiClient(
		tenantClient(first, "ms-1"),
		tenantClient(second, "ms-2"),
	)

	booking, micrositeID, err := mc.SearchBookingAcrossAllMicrosites(context.Background(), "NOPE-1", false)
	require.NoError(t, err)
	assert.Nil(t, booking)
	assert.Empty(t, micrositeID)
}

func TestGetAllBookingsFromAllMicrosites_ExcludesFailingTenant(t *testing.T) {
	healthy := tenantServer(t, "RRP-7", false, nil)
	broken := tenantServer(t, "", true, nil)
	defer healthy.Close()
	defer broken.Close()

	mc := NewMultiClient(
		tenantClient(healthy, "ms-ok"),
		tenantClient(broken, "ms-broken"),
	)

	results, err := mc.GetAllBookingsFromAllMicrosites(context.Background())
	require.NoError(t, err)
	require.Contains(t, results, "ms-ok")
	assert.NotContains(t, results, "ms-broken")
	assert.Len(t, results["ms-ok"], 1)
}

func TestAgentRegistry(t *testing.T) {
	registry := NewAgentRegistry()
	assert.Nil(t, registry.Get("agent-1"))

	mc := NewMultiClient()
	registry.Register("agent-1", mc)
	assert.Same(t, mc, registry.Get("agent-1"))

	replacement := NewMultiClient()
	registry.Register("agent-1", replacement)
	assert.Same(t, replacement, registry.Get("agent-1"))
}
