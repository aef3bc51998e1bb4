package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by its ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	var shipment shipping.Shipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByTrackingNumber finds a shipment by carrier tracking number
func (r *GormShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*shipping.Shipment, error) {
	var shipment shipping.Shipment
	if err := r.db.WithContext(ctx).
		Where("tracking_number = ?", strings.TrimSpace(trackingNumber)).
		First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shipment, nil
}

// FindByFulfillmentID finds all shipments booked for a fulfillment unit
func (r *GormShipmentRepository) FindByFulfillmentID(ctx context.Context, fulfillmentID uuid.UUID) ([]*shipping.Shipment, error) {
	var shipments []*shipping.Shipment
	if err := r.db.WithContext(ctx).
		Where("fulfillment_id = ?", fulfillmentID).
		Order("created_at ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// ExistsActiveForFulfillment reports whether a non-cancelled shipment exists
// for the fulfillment unit
func (r *GormShipmentRepository) ExistsActiveForFulfillment(ctx context.Context, fulfillmentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&shipping.Shipment{}).
		Where("fulfillment_id = ? AND status <> ?", fulfillmentID, shipping.StatusCancelled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds shipments matching the filter with pagination
func (r *GormShipmentRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*shipping.Shipment], error) {
	var total int64
	countQuery := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&shipping.Shipment{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	var shipments []*shipping.Shipment
	query := r.applyFilter(r.db.WithContext(ctx).Model(&shipping.Shipment{}), filter)
	if err := query.Find(&shipments).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(shipments, total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindStaleActive finds up to limit shipments in the given statuses whose
// tracking watermark is older than the cutoff or never set, oldest first
func (r *GormShipmentRepository) FindStaleActive(ctx context.Context, statuses []shipping.ShipmentStatus, olderThan time.Time, limit int) ([]*shipping.Shipment, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	var shipments []*shipping.Shipment
	if err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("last_tracking_update IS NULL OR last_tracking_update < ?", olderThan).
		Order("last_tracking_update ASC NULLS FIRST").
		Limit(limit).
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// Save creates or updates a shipment
func (r *GormShipmentRepository) Save(ctx context.Context, shipment *shipping.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

// applyFilter applies filter options to the query
func (r *GormShipmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormShipmentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("tracking_number ILIKE ? OR awb_number ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "carrier_code":
			query = query.Where("carrier_code = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "is_cod":
			query = query.Where("is_cod = ?", value)
		case "dest_city":
			query = query.Where("dest_city = ?", value)
		}
	}

	return query
}

// Ensure GormShipmentRepository implements ShipmentRepository
var _ shipping.ShipmentRepository = (*GormShipmentRepository)(nil)
