package constants

// Static route constants
const (
	APIRoute   = "/api"
	APIv1Route = "/v1"

	PingRoute            = "/ping"
	BookingsRoute        = "/bookings"
	BookingByIDRoute     = "/bookings/:id"
	MicrositesRoute      = "/microsites"
	MicrositeBookings    = "/microsites/:config/bookings"
	MicrositeSyncRoute   = "/microsites/:config/sync"
	SyncStatusRoute      = "/sync/status"
	SyncJobRoute         = "/sync/jobs/:id"
	FeatureRequestsRoute = "/feature-requests"
	FeatureRequestByID   = "/feature-requests/:id"
	FeatureRequestVote   = "/feature-requests/:id/vote"
	FeatureRequestStatus = "/feature-requests/:id/status"

	// Webhooks live outside the rate-limited API group
	WebhookCompositorRoute = "/webhooks/travel-compositor"
)
