package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/metrics/counter"
)

// HandleGetBooking resolves one booking by id or reference. The cached sets
// are consulted first, per configuration in slot order; only when every cache
// misses does the request fan out to the live API. Fuzzy (substring) matching
// is off unless the caller asks for it with ?fuzzy=true, and only applies to
// the live path: cache lookups stay exact so a sloppy query can never shadow
// an exact hit in a later tenant.
func HandleGetBooking(c *fiber.Ctx) error {
	d := getDeps()

	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Booking id missing"})
	}
	fuzzy := c.QueryBool("fuzzy", false)

	ctx := c.UserContext()

	for _, configNumber := range d.Sync.Configurations() {
		booking := d.Sync.Store().FindBooking(ctx, configNumber, id)
		if booking == nil {
			if err := counter.AddCacheMiss(configNumber); err != nil {
				log.Debugf("[Booking] cache miss counter failed: %v", err)
			}
			continue
		}
		if err := counter.AddCacheHit(configNumber); err != nil {
			log.Debugf("[Booking] cache hit counter failed: %v", err)
		}

		micrositeID := ""
		if fetcher, ok := d.Sync.Fetcher(configNumber); ok {
			micrositeID = fetcher.MicrositeID()
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"booking":   booking,
			"microsite": micrositeID,
			"source":    "cache",
		})
	}

	booking, micrositeID, err := d.Multi.SearchBookingAcrossAllMicrosites(ctx, id, fuzzy)
	if err != nil {
		log.Errorf("[Booking] live search for %s failed: %v", id, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Booking lookup against the booking API failed"})
	}
	if booking == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Booking " + id + " not found in any microsite"})
	}

	if n := configNumberForMicrosite(micrositeID); n > 0 {
		if err := counter.AddLiveFetch(n); err != nil {
			log.Debugf("[Booking] live fetch counter failed: %v", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"booking":   booking,
		"microsite": micrositeID,
		"source":    "live",
	})
}

func configNumberForMicrosite(micrositeID string) int {
	if micrositeID == "" {
		return 0
	}
	d := getDeps()
	for _, n := range d.Sync.Configurations() {
		if fetcher, ok := d.Sync.Fetcher(n); ok && fetcher.MicrositeID() == micrositeID {
			return n
		}
	}
	return 0
}
