package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/DennisVerbeek/TravelDesk/app/controllers"
)

// Pong is the ping endpoint response
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetBooking resolves a booking by id or reference across all microsites.
func (s *APIServer) GetBooking(c *fiber.Ctx) error {
	return controllers.HandleGetBooking(c)
}

// GetMicrosites lists the configured microsites with their cache state.
func (s *APIServer) GetMicrosites(c *fiber.Ctx) error {
	return controllers.HandleListMicrosites(c)
}

// GetMicrositeBookings returns the booking set for one microsite.
func (s *APIServer) GetMicrositeBookings(c *fiber.Ctx) error {
	return controllers.HandleGetMicrositeBookings(c)
}

// PostMicrositeSync queues a forced resync for one microsite.
// Security is enforced via the admin API key middleware attached in the router.
func (s *APIServer) PostMicrositeSync(c *fiber.Ctx) error {
	return controllers.HandleForceSync(c)
}

// GetSyncStatus reports cache freshness, queue and lookup counters.
func (s *APIServer) GetSyncStatus(c *fiber.Ctx) error {
	return controllers.HandleSyncStatus(c)
}

// GetSyncJob reports one queued sync job by id.
func (s *APIServer) GetSyncJob(c *fiber.Ctx) error {
	return controllers.HandleGetSyncJob(c)
}

// Feature board endpoints delegate to the board controllers.

func (s *APIServer) PostFeatureRequest(c *fiber.Ctx) error {
	return controllers.HandleCreateFeatureRequest(c)
}

func (s *APIServer) GetFeatureRequests(c *fiber.Ctx) error {
	return controllers.HandleListFeatureRequests(c)
}

func (s *APIServer) GetFeatureRequest(c *fiber.Ctx) error {
	return controllers.HandleGetFeatureRequest(c)
}

func (s *APIServer) PostFeatureRequestVote(c *fiber.Ctx) error {
	return controllers.HandleVoteFeatureRequest(c)
}

func (s *APIServer) PatchFeatureRequestStatus(c *fiber.Ctx) error {
	return controllers.HandleUpdateFeatureRequestStatus(c)
}

func (s *APIServer) DeleteFeatureRequest(c *fiber.Ctx) error {
	return controllers.HandleDeleteFeatureRequest(c)
}

// GetWebhookEvents lists recently received webhook deliveries (admin).
func (s *APIServer) GetWebhookEvents(c *fiber.Ctx) error {
	return controllers.HandleListWebhookEvents(c)
}
