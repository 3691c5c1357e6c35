package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pagora/internal/models"
)

// WebhookStore persists merchant webhook endpoints and the append-only
// delivery attempt log.
type WebhookStore interface {
	CreateEndpoint(ctx context.Context, ep *models.WebhookEndpoint) error
	GetEndpoint(ctx context.Context, id uint) (*models.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, merchantID uint) ([]models.WebhookEndpoint, error)
	// ListActiveEndpoints returns the merchant's active endpoints
	// subscribed to eventType.
	ListActiveEndpoints(ctx context.Context, merchantID uint, eventType string) ([]models.WebhookEndpoint, error)
	DeactivateEndpoint(ctx context.Context, merchantID, id uint) error
	DeleteEndpoint(ctx context.Context, merchantID, id uint) error

	InsertDeliveryAttempt(ctx context.Context, attempt *models.WebhookDelivery) error
	ListDeliveries(ctx context.Context, endpointID uint, limit int) ([]models.WebhookDelivery, error)
}

type webhookStore struct {
	db *gorm.DB
}

// NewWebhookStore builds the gorm-backed WebhookStore.
func NewWebhookStore(db *gorm.DB) WebhookStore {
	if db == nil {
		panic("db is required")
	}
	return &webhookStore{db: db}
}

func (s *webhookStore) CreateEndpoint(ctx context.Context, ep *models.WebhookEndpoint) error {
	return s.db.WithContext(ctx).Create(ep).Error
}

func (s *webhookStore) GetEndpoint(ctx context.Context, id uint) (*models.WebhookEndpoint, error) {
	var ep models.WebhookEndpoint
	err := s.db.WithContext(ctx).First(&ep, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEndpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return &ep, nil
}

func (s *webhookStore) ListEndpoints(ctx context.Context, merchantID uint) ([]models.WebhookEndpoint, error) {
	var eps []models.WebhookEndpoint
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("id").
		Find(&eps).Error
	return eps, err
}

func (s *webhookStore) ListActiveEndpoints(ctx context.Context, merchantID uint, eventType string) ([]models.WebhookEndpoint, error) {
	var eps []models.WebhookEndpoint
	err := s.db.WithContext(ctx).
		Where("merchant_id = ? AND active = ?", merchantID, true).
		Order("id").
		Find(&eps).Error
	if err != nil {
		return nil, err
	}
	// Subscription filtering happens here rather than in SQL so an empty
	// event-type set keeps meaning "all events".
	subscribed := eps[:0]
	for _, ep := range eps {
		if ep.SubscribedTo(eventType) {
			subscribed = append(subscribed, ep)
		}
	}
	return subscribed, nil
}

func (s *webhookStore) DeactivateEndpoint(ctx context.Context, merchantID, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.WebhookEndpoint{}).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

func (s *webhookStore) DeleteEndpoint(ctx context.Context, merchantID, id uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		Delete(&models.WebhookEndpoint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

func (s *webhookStore) InsertDeliveryAttempt(ctx context.Context, attempt *models.WebhookDelivery) error {
	return s.db.WithContext(ctx).Create(attempt).Error
}

func (s *webhookStore) ListDeliveries(ctx context.Context, endpointID uint, limit int) ([]models.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.WebhookDelivery
	err := s.db.WithContext(ctx).
		Where("endpoint_id = ?", endpointID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
