package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/DennisVerbeek/TravelDesk/app/models"
)

var validate = validator.New()

type featureRequestInput struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	SubmittedBy string `json:"submitted_by" validate:"omitempty,max=100"`
}

// HandleCreateFeatureRequest files a new wish on the feature board.
func HandleCreateFeatureRequest(c *fiber.Ctx) error {
	d := getDeps()

	var input featureRequestInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validate.Struct(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": validationMessage(err)})
	}

	request := &models.FeatureRequest{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Status:      models.FeatureStatusOpen,
		SubmittedBy: strings.TrimSpace(input.SubmittedBy),
	}
	if err := d.Repos.FeatureRequest.Create(request); err != nil {
		log.Errorf("[FeatureBoard] create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store feature request"})
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// HandleListFeatureRequests lists board entries, optionally filtered by status.
func HandleListFeatureRequests(c *fiber.Ctx) error {
	d := getDeps()

	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !models.IsValidStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown status filter"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 25)
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	requests, err := d.Repos.FeatureRequest.List(status, (page-1)*perPage, perPage)
	if err != nil {
		log.Errorf("[FeatureBoard] list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load feature requests"})
	}
	total, err := d.Repos.FeatureRequest.Count(status)
	if err != nil {
		log.Errorf("[FeatureBoard] count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load feature requests"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"requests": requests,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// HandleGetFeatureRequest returns one board entry by id.
func HandleGetFeatureRequest(c *fiber.Ctx) error {
	d := getDeps()

	id, ok := parseFeatureRequestID(c)
	if !ok {
		return featureRequestNotFound(c)
	}

	request, err := d.Repos.FeatureRequest.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return featureRequestNotFound(c)
		}
		log.Errorf("[FeatureBoard] load %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load feature request"})
	}

	return c.Status(fiber.StatusOK).JSON(request)
}

// HandleVoteFeatureRequest adds one vote to a board entry.
func HandleVoteFeatureRequest(c *fiber.Ctx) error {
	d := getDeps()

	id, ok := parseFeatureRequestID(c)
	if !ok {
		return featureRequestNotFound(c)
	}

	request, err := d.Repos.FeatureRequest.Vote(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return featureRequestNotFound(c)
		}
		log.Errorf("[FeatureBoard] vote on %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to register vote"})
	}

	return c.Status(fiber.StatusOK).JSON(request)
}

type featureStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateFeatureRequestStatus moves a board entry through its lifecycle
// (admin only, enforced by middleware on the route).
func HandleUpdateFeatureRequestStatus(c *fiber.Ctx) error {
	d := getDeps()

	id, ok := parseFeatureRequestID(c)
	if !ok {
		return featureRequestNotFound(c)
	}

	var input featureStatusInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if !models.IsValidStatus(strings.TrimSpace(input.Status)) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown status"})
	}

	request, err := d.Repos.FeatureRequest.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return featureRequestNotFound(c)
		}
		log.Errorf("[FeatureBoard] load %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load feature request"})
	}

	request.Status = strings.TrimSpace(input.Status)
	if err := d.Repos.FeatureRequest.Update(request); err != nil {
		log.Errorf("[FeatureBoard] status update on %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update feature request"})
	}

	return c.Status(fiber.StatusOK).JSON(request)
}

// HandleDeleteFeatureRequest removes a board entry (admin only).
func HandleDeleteFeatureRequest(c *fiber.Ctx) error {
	d := getDeps()

	id, ok := parseFeatureRequestID(c)
	if !ok {
		return featureRequestNotFound(c)
	}

	if err := d.Repos.FeatureRequest.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return featureRequestNotFound(c)
		}
		log.Errorf("[FeatureBoard] delete %d failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete feature request"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseFeatureRequestID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Params("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func featureRequestNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Feature request not found"})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return "Field '" + strings.ToLower(first.Field()) + "' failed on '" + first.Tag() + "'"
	}
	return "Validation failed"
}
