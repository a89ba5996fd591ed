package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DennisVerbeek/TravelDesk/app/controllers"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/constants"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"name":   "TravelDesk",
			"status": "ok",
		})
	})

	// Webhook ingress is authenticated by HMAC signature, not by API key,
	// and must not sit behind the API rate limiter: the sender retries on
	// 429 and we would invalidate the same cache over and over.
	app.Post(constants.WebhookCompositorRoute, controllers.HandleCompositorWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
