package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// GormCarrierConfigRepository implements CarrierConfigRepository using GORM
type GormCarrierConfigRepository struct {
	db *gorm.DB
}

// NewGormCarrierConfigRepository creates a new GormCarrierConfigRepository
func NewGormCarrierConfigRepository(db *gorm.DB) *GormCarrierConfigRepository {
	return &GormCarrierConfigRepository{db: db}
}

// FindByID finds a carrier configuration by its ID
func (r *GormCarrierConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.CarrierConfig, error) {
	var config shipping.CarrierConfig
	if err := r.db.WithContext(ctx).First(&config, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindByCode finds a carrier configuration by its unique code
func (r *GormCarrierConfigRepository) FindByCode(ctx context.Context, code string) (*shipping.CarrierConfig, error) {
	var config shipping.CarrierConfig
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToLower(strings.TrimSpace(code))).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindEnabled finds all enabled carriers in code-sorted order
func (r *GormCarrierConfigRepository) FindEnabled(ctx context.Context) ([]*shipping.CarrierConfig, error) {
	var configs []*shipping.CarrierConfig
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("code ASC").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// FindAll finds all carriers in code-sorted order
func (r *GormCarrierConfigRepository) FindAll(ctx context.Context) ([]*shipping.CarrierConfig, error) {
	var configs []*shipping.CarrierConfig
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Save creates or updates a carrier configuration
func (r *GormCarrierConfigRepository) Save(ctx context.Context, config *shipping.CarrierConfig) error {
	if err := r.db.WithContext(ctx).Save(config).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes a carrier configuration
func (r *GormCarrierConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&shipping.CarrierConfig{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCarrierConfigRepository implements CarrierConfigRepository
var _ shipping.CarrierConfigRepository = (*GormCarrierConfigRepository)(nil)
