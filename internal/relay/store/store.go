package store

import (
	"context"
	"errors"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the delivery ledger.
type Store interface {
	Deliveries() Deliveries

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// ListDeliveriesParams pages through deliveries newest first.
type ListDeliveriesParams struct {
	// Limit caps the page size; values <= 0 use DefaultListLimit.
	Limit int

	// Before, when set, returns only deliveries older than this id.
	Before idx.ID
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Deliveries interface {
	// CreateDelivery inserts d. Returns ErrAlreadyExists on a duplicate id.
	CreateDelivery(ctx context.Context, d domain.Delivery) error

	// GetDeliveryByID returns ErrNotFound if no such delivery exists.
	GetDeliveryByID(ctx context.Context, id idx.ID) (domain.Delivery, error)

	ListDeliveries(ctx context.Context, p ListDeliveriesParams) ([]domain.Delivery, error)

	// DeleteDeliveriesBefore removes deliveries created before t and
	// reports how many were removed.
	DeleteDeliveriesBefore(ctx context.Context, t time.Time) (int64, error)
}
