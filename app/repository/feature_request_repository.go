package repository

import (
	"gorm.io/gorm"

	"github.com/DennisVerbeek/TravelDesk/app/models"
)

// featureRequestRepository implements the FeatureRequestRepository interface
type featureRequestRepository struct {
	db *gorm.DB
}

// NewFeatureRequestRepository creates a new feature request repository instance
func NewFeatureRequestRepository(db *gorm.DB) FeatureRequestRepository {
	return &featureRequestRepository{db: db}
}

// Create stores a new feature request
func (r *featureRequestRepository) Create(request *models.FeatureRequest) error {
	return r.db.Create(request).Error
}

// GetByID retrieves a feature request by its ID
func (r *featureRequestRepository) GetByID(id uint64) (*models.FeatureRequest, error) {
	var request models.FeatureRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// List retrieves feature requests ordered by votes, optionally filtered by status
func (r *featureRequestRepository) List(status string, offset, limit int) ([]models.FeatureRequest, error) {
	var requests []models.FeatureRequest
	query := r.db.Order("votes DESC, created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&requests).Error
	return requests, err
}

// Update saves changes to an existing feature request
func (r *featureRequestRepository) Update(request *models.FeatureRequest) error {
	return r.db.Save(request).Error
}

// Delete soft deletes a feature request by its ID
func (r *featureRequestRepository) Delete(id uint64) error {
	return r.db.Delete(&models.FeatureRequest{}, id).Error
}

// Vote atomically increments the vote counter and returns the fresh record
func (r *featureRequestRepository) Vote(id uint64) (*models.FeatureRequest, error) {
	result := r.db.Model(&models.FeatureRequest{}).
		Where("id = ?", id).
		UpdateColumn("votes", gorm.Expr("votes + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// Count returns the number of feature requests, optionally filtered by status
func (r *featureRequestRepository) Count(status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.FeatureRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
