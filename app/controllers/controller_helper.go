package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DennisVerbeek/TravelDesk/app/repository"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/syncqueue"
)

// ResyncQueue is the slice of the job queue the controllers need.
type ResyncQueue interface {
	EnqueueResync(configNumber int) (*syncqueue.Job, error)
	GetJob(ctx context.Context, jobID string) (*syncqueue.Job, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

// Deps bundles everything the HTTP handlers work against. The composition
// root builds one instance at startup and hands it to Initialize; handlers
// never construct their own clients or repositories.
type Deps struct {
	Multi *compositor.MultiClient
	Sync  *bookingstore.SyncService
	Queue ResyncQueue
	Repos *repository.Repositories
}

var deps *Deps

// Initialize wires the controller package to its dependencies. Must be called
// once before any route is served.
func Initialize(d *Deps) {
	deps = d
}

func getDeps() *Deps {
	if deps == nil {
		panic("controllers: Initialize was not called")
	}
	return deps
}

// parseConfigParam reads the :config route parameter and checks it against
// the configurations the sync service actually knows.
func parseConfigParam(c *fiber.Ctx) (int, bool) {
	raw := strings.TrimSpace(c.Params("config"))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	for _, known := range getDeps().Sync.Configurations() {
		if known == n {
			return n, true
		}
	}
	return 0, false
}

func unknownMicrositeResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "not_found",
		"message": "Unknown microsite configuration",
	})
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
