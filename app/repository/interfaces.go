package repository

import (
	"time"

	"github.com/DennisVerbeek/TravelDesk/app/models"
)

// FeatureRequestRepository defines the interface for feature board operations
type FeatureRequestRepository interface {
	Create(request *models.FeatureRequest) error
	GetByID(id uint64) (*models.FeatureRequest, error)
	List(status string, offset, limit int) ([]models.FeatureRequest, error)
	Update(request *models.FeatureRequest) error
	Delete(id uint64) error
	Vote(id uint64) (*models.FeatureRequest, error)
	Count(status string) (int64, error)
}

// WebhookEventRepository defines the interface for webhook event bookkeeping
type WebhookEventRepository interface {
	Create(event *models.WebhookEvent) error
	GetByProviderEventID(provider, providerEventID string) (*models.WebhookEvent, error)
	MarkProcessed(id uint, processedAt time.Time, processingError string) error
	ListRecent(limit int) ([]models.WebhookEvent, error)
}
