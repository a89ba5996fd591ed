package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/metrics/counter"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/syncqueue"
)

// HandleListMicrosites lists the configured tenants with their cache state.
func HandleListMicrosites(c *fiber.Ctx) error {
	d := getDeps()
	ctx := c.UserContext()

	microsites := make([]fiber.Map, 0, len(d.Sync.Configurations()))
	for _, n := range d.Sync.Configurations() {
		micrositeID := ""
		if fetcher, ok := d.Sync.Fetcher(n); ok {
			micrositeID = fetcher.MicrositeID()
		}

		entry := fiber.Map{
			"config":      n,
			"microsite":   micrositeID,
			"cache_valid": d.Sync.Store().IsCacheValid(ctx, n),
			"last_sync":   nil,
		}
		if lastSync, ok := d.Sync.Store().LastSync(ctx, n); ok {
			entry["last_sync"] = formatTimePtr(&lastSync)
		}
		microsites = append(microsites, entry)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"microsites": microsites})
}

// HandleGetMicrositeBookings returns the full booking set for one tenant,
// syncing it first when the cache is stale or empty.
func HandleGetMicrositeBookings(c *fiber.Ctx) error {
	d := getDeps()

	configNumber, ok := parseConfigParam(c)
	if !ok {
		return unknownMicrositeResponse(c)
	}

	ctx := c.UserContext()
	bookings, err := d.Sync.EnsureBookingsAvailable(ctx, configNumber)
	if err != nil {
		var unknown *bookingstore.UnknownConfigError
		if errors.As(err, &unknown) {
			return unknownMicrositeResponse(c)
		}
		log.Errorf("[Sync] bookings for config %d unavailable: %v", configNumber, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Booking sync against the booking API failed"})
	}

	micrositeID := ""
	if fetcher, found := d.Sync.Fetcher(configNumber); found {
		micrositeID = fetcher.MicrositeID()
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"config":    configNumber,
		"microsite": micrositeID,
		"count":     len(bookings),
		"bookings":  bookings,
	})
}

// HandleForceSync invalidates one tenant's cache and queues a fresh sync.
// The sync itself runs on the job queue workers; the response only carries
// the job handle.
func HandleForceSync(c *fiber.Ctx) error {
	d := getDeps()

	configNumber, ok := parseConfigParam(c)
	if !ok {
		return unknownMicrositeResponse(c)
	}

	if err := d.Sync.Store().InvalidateCache(c.UserContext(), configNumber); err != nil {
		log.Errorf("[Sync] cache invalidation for config %d failed: %v", configNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Cache invalidation failed"})
	}

	job, err := d.Queue.EnqueueResync(configNumber)
	if err != nil {
		log.Errorf("[Sync] enqueue resync for config %d failed: %v", configNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to queue sync job"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"status": job.Status,
		"config": configNumber,
	})
}

// HandleGetSyncJob reports one queued sync job.
func HandleGetSyncJob(c *fiber.Ctx) error {
	d := getDeps()

	job, err := d.Queue.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, syncqueue.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Sync job not found"})
		}
		log.Errorf("[Sync] job lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Job lookup failed"})
	}

	return c.Status(fiber.StatusOK).JSON(job)
}

// HandleSyncStatus reports cache freshness per tenant plus queue and lookup
// counters in one overview payload.
func HandleSyncStatus(c *fiber.Ctx) error {
	d := getDeps()
	ctx := c.UserContext()

	configs := make([]fiber.Map, 0, len(d.Sync.Configurations()))
	for _, n := range d.Sync.Configurations() {
		micrositeID := ""
		if fetcher, ok := d.Sync.Fetcher(n); ok {
			micrositeID = fetcher.MicrositeID()
		}

		entry := fiber.Map{
			"config":      n,
			"microsite":   micrositeID,
			"cache_valid": d.Sync.Store().IsCacheValid(ctx, n),
			"bookings":    len(d.Sync.Store().GetIndex(ctx, n)),
			"last_sync":   nil,
		}
		if lastSync, ok := d.Sync.Store().LastSync(ctx, n); ok {
			entry["last_sync"] = formatTimePtr(&lastSync)
		}
		configs = append(configs, entry)
	}

	response := fiber.Map{"configurations": configs}

	if stats, err := d.Queue.Stats(ctx); err == nil {
		response["queue"] = stats
	} else {
		log.Warnf("[Sync] queue stats unavailable: %v", err)
	}
	if lookups, err := counter.Snapshot(); err == nil {
		response["lookups"] = lookups
	} else {
		log.Warnf("[Sync] lookup counters unavailable: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
