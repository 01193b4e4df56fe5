package repository

import (
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/domain"

	"gorm.io/gorm"
)

// MediaAssetRepo definition asset metadata rows backing message media and
// other uploaded objects
type MediaAssetRepo interface {
	AutoMigrate() error
	Create(asset *domain.MediaAsset) error
	GetByKey(objectKey string) (*domain.MediaAsset, error)
	// FindExpired lists assets whose own expiry has passed.
	FindExpired(now time.Time) ([]domain.MediaAsset, error)
	// Delete removes the metadata row. The remote object is the caller's
	// responsibility and must be deleted first.
	Delete(id uint) error
}

type mediaAssetRepo struct {
	db *gorm.DB
}

// NewMediaAssetRepo create MediaAssetRepo
func NewMediaAssetRepo(db *gorm.DB) MediaAssetRepo {
	return &mediaAssetRepo{db: db}
}

func (r *mediaAssetRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.MediaAsset{})
}

func (r *mediaAssetRepo) Create(asset *domain.MediaAsset) error {
	return r.db.Create(asset).Error
}

func (r *mediaAssetRepo) GetByKey(objectKey string) (*domain.MediaAsset, error) {
	var a domain.MediaAsset
	if err := r.db.Where("object_key = ?", objectKey).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *mediaAssetRepo) FindExpired(now time.Time) ([]domain.MediaAsset, error) {
	var assets []domain.MediaAsset
	err := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Find(&assets).Error
	return assets, err
}

func (r *mediaAssetRepo) Delete(id uint) error {
	return r.db.Delete(&domain.MediaAsset{}, id).Error
}
