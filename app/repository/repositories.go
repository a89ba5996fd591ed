package repository

import (
	"gorm.io/gorm"
)

// Repositories bundles all repository instances. The composition root builds
// one bundle on top of one database handle and injects it; there is no
// process-global accessor.
type Repositories struct {
	FeatureRequest FeatureRequestRepository
	WebhookEvent   WebhookEventRepository
}

// NewRepositories creates all repositories on top of one database handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		FeatureRequest: NewFeatureRequestRepository(db),
		WebhookEvent:   NewWebhookEventRepository(db),
	}
}
