package controllers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/DennisVerbeek/TravelDesk/app/models"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/env"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/security"
)

const webhookProviderCompositor = "travel-compositor"

// compositorWebhookPayload is the subset of the webhook body we act on.
type compositorWebhookPayload struct {
	MicrositeID string `json:"micrositeId"`
	BookingRef  string `json:"bookingReference"`
	EventType   string `json:"eventType"`
}

// HandleCompositorWebhook ingests booking change notifications. The handler
// verifies the HMAC signature, persists the delivery for audit and replay
// detection, invalidates the affected tenant's cache and queues a resync.
// The heavy work happens on the queue workers; the webhook sender always
// gets a fast response.
func HandleCompositorWebhook(c *fiber.Ctx) error {
	d := getDeps()

	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventType := strings.TrimSpace(c.Get("X-TC-Event"))
	eventID := firstHeaderValue(c, "X-TC-Delivery", "X-TC-Event-ID", "X-Request-Id")
	signature := strings.TrimSpace(c.Get("X-TC-Signature"))
	secret := env.GetEnv("TRAVEL_COMPOSITOR_WEBHOOK_SECRET", "")

	signatureValid := security.VerifyWebhookSignature(rawBody, signature, secret)

	var payload compositorWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		log.Warnf("[Webhook] unparseable payload (event %s): %v", eventID, err)
	}
	if eventType == "" {
		eventType = strings.TrimSpace(payload.EventType)
	}
	configNumber := configNumberForMicrosite(strings.TrimSpace(payload.MicrositeID))

	// Unsigned or tampered deliveries never get an acknowledgement, replayed or
	// not. Record the first copy for audit, then answer 401 every time.
	existing, lookupErr := lookupWebhookEvent(d, eventID)
	if lookupErr != nil {
		log.Errorf("[Webhook] duplicate check for %s failed: %v", eventID, lookupErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	if !signatureValid {
		if existing == nil {
			event := &models.WebhookEvent{
				Provider:        webhookProviderCompositor,
				ProviderEventID: eventID,
				EventType:       eventType,
				MicrositeID:     payload.MicrositeID,
				ConfigNumber:    configNumber,
				PayloadJSON:     string(rawBody),
				SignatureValid:  false,
			}
			if err := d.Repos.WebhookEvent.Create(event); err != nil {
				log.Errorf("[Webhook] persisting event %s failed: %v", eventID, err)
			} else {
				markWebhookProcessed(event.ID, "invalid webhook signature")
			}
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	// Replays of a verified delivery carry the same id; record once, ack always.
	if existing != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	event := &models.WebhookEvent{
		Provider:        webhookProviderCompositor,
		ProviderEventID: eventID,
		EventType:       eventType,
		MicrositeID:     payload.MicrositeID,
		ConfigNumber:    configNumber,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	}
	if err := d.Repos.WebhookEvent.Create(event); err != nil {
		log.Errorf("[Webhook] persisting event %s failed: %v", eventID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	if configNumber == 0 {
		markWebhookProcessed(event.ID, "no configuration for microsite "+payload.MicrositeID)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	if err := d.Sync.Store().InvalidateCache(c.UserContext(), configNumber); err != nil {
		log.Errorf("[Webhook] cache invalidation for config %d failed: %v", configNumber, err)
		markWebhookProcessed(event.ID, err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalidation_failed"})
	}

	if _, err := d.Queue.EnqueueResync(configNumber); err != nil {
		// Cache is already invalidated, the next read repopulates it. Keep 200.
		log.Warnf("[Webhook] resync enqueue for config %d failed: %v", configNumber, err)
		markWebhookProcessed(event.ID, "resync enqueue failed: "+err.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "resync_queued": false})
	}

	markWebhookProcessed(event.ID, "")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "resync_queued": true})
}

// HandleListWebhookEvents lists the latest received deliveries (admin).
func HandleListWebhookEvents(c *fiber.Ctx) error {
	d := getDeps()

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	events, err := d.Repos.WebhookEvent.ListRecent(limit)
	if err != nil {
		log.Errorf("[Webhook] listing events failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook events"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"events": events, "count": len(events)})
}

// lookupWebhookEvent fetches a previously stored delivery by its provider
// event id. Deliveries without an id are never treated as replays.
func lookupWebhookEvent(d *Deps, eventID string) (*models.WebhookEvent, error) {
	if eventID == "" {
		return nil, nil
	}
	event, err := d.Repos.WebhookEvent.GetByProviderEventID(webhookProviderCompositor, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

func markWebhookProcessed(id uint, processingError string) {
	if err := getDeps().Repos.WebhookEvent.MarkProcessed(id, time.Now(), processingError); err != nil {
		log.Warnf("[Webhook] marking event %d processed failed: %v", id, err)
	}
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Get(key)); v != "" {
			return v
		}
	}
	return ""
}
