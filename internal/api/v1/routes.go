package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/constants"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/middleware"
)

// RegisterHandlers attaches the v1 API routes to the given router group.
// Routes mirror public/docs/v1/openapi.yml.
func RegisterHandlers(r fiber.Router, s *APIServer) {
	adminOnly := middleware.AdminAPIKeyMiddleware()

	r.Get(constants.PingRoute, s.GetPing)

	r.Get(constants.BookingByIDRoute, s.GetBooking)

	r.Get(constants.MicrositesRoute, s.GetMicrosites)
	r.Get(constants.MicrositeBookings, s.GetMicrositeBookings)
	r.Post(constants.MicrositeSyncRoute, adminOnly, s.PostMicrositeSync)

	r.Get(constants.SyncStatusRoute, s.GetSyncStatus)
	r.Get(constants.SyncJobRoute, s.GetSyncJob)

	r.Post(constants.FeatureRequestsRoute, s.PostFeatureRequest)
	r.Get(constants.FeatureRequestsRoute, s.GetFeatureRequests)
	r.Get(constants.FeatureRequestByID, s.GetFeatureRequest)
	r.Post(constants.FeatureRequestVote, s.PostFeatureRequestVote)
	r.Patch(constants.FeatureRequestStatus, adminOnly, s.PatchFeatureRequestStatus)
	r.Delete(constants.FeatureRequestByID, adminOnly, s.DeleteFeatureRequest)

	r.Get("/webhook-events", adminOnly, s.GetWebhookEvents)
}
