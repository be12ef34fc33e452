package services

import (
	"context"
	"fmt"
	"net/http"

	"homeser-core/apperrors"
	"homeser-core/catalog"
	"homeser-core/models"
	"homeser-core/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService owns cart mutations. Price resolution happens before the
// compare-and-swap write, so no lock is ever held across the catalog call.
type CartService struct {
	repo    *repository.CartRepository
	catalog catalog.PriceLookup
	logger  *zap.Logger
}

func NewCartService(repo *repository.CartRepository, catalog catalog.PriceLookup, logger *zap.Logger) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

// AddItem resolves the current catalog price, snapshots it on the line and
// applies the mutation guarded by expectedVersion. An existing service id
// has its quantity increased rather than duplicating the line.
func (s *CartService) AddItem(ctx context.Context, userID string, serviceID uuid.UUID, qty int, expectedVersion int64) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.New(http.StatusBadRequest, "quantity must be at least 1", nil)
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		s.logger.Warn("Catalog lookup failed",
			zap.String("service_id", serviceID.String()),
			zap.Error(err),
		)
		return nil, apperrors.New(http.StatusBadRequest, "service not available", err)
	}
	if !svc.Active {
		return nil, apperrors.New(http.StatusBadRequest, "service not available", nil)
	}

	return s.repo.Mutate(ctx, userID, expectedVersion, func(cart *models.Cart) error {
		cart.AddItem(serviceID, qty, svc.Price)
		return nil
	})
}

// RemoveItem decrements a line by qty under the same version guard; a line
// reaching zero quantity is dropped.
func (s *CartService) RemoveItem(ctx context.Context, userID string, serviceID uuid.UUID, qty int, expectedVersion int64) (*models.Cart, error) {
	if qty < 1 {
		return nil, apperrors.New(http.StatusBadRequest, "quantity must be at least 1", nil)
	}

	return s.repo.Mutate(ctx, userID, expectedVersion, func(cart *models.Cart) error {
		if !cart.RemoveItem(serviceID, qty) {
			return apperrors.New(http.StatusNotFound, fmt.Sprintf("service %s not in cart", serviceID), nil)
		}
		return nil
	})
}

// Snapshot returns the user's cart, an empty version-0 cart when none
// exists yet.
func (s *CartService) Snapshot(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = models.NewCart(userID)
	}
	return cart, nil
}
