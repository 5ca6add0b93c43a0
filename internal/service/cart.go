package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/events"
	"github.com/comphility/backend/internal/logging"
	"github.com/comphility/backend/internal/repository"
)

// CartService maintains the per-user product→quantity mapping.
type CartService struct {
	cart     repository.CartRepository
	products repository.ProductRepository
	producer *events.Producer
}

func NewCartService(cart repository.CartRepository, products repository.ProductRepository, producer *events.Producer) *CartService {
	return &CartService{cart: cart, products: products, producer: producer}
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]repository.CartLine, error) {
	lines, err := s.cart.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return lines, nil
}

// AddItem merges quantity into an existing line or inserts a new one.
// Requested quantity is not checked against stock; availability is a
// checkout concern.
func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity uint) ([]repository.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.FromStore(err)
	}

	if err := s.cart.Add(ctx, userID, productID, quantity); err != nil {
		return nil, apperr.FromStore(err)
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	return s.GetCart(ctx, userID)
}

// UpdateItem overwrites the quantity of a line the user owns. Zero or a
// negative request deletes the line instead of storing it.
func (s *CartService) UpdateItem(ctx context.Context, userID, lineID uint, quantity int) error {
	if _, err := s.cart.GetLine(ctx, lineID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Cart item not found")
		}
		return apperr.FromStore(err)
	}

	if quantity <= 0 {
		if err := s.cart.DeleteLine(ctx, lineID, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.FromStore(err)
		}
	} else {
		if err := s.cart.SetQuantity(ctx, lineID, uint(quantity)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("Cart item not found")
			}
			return apperr.FromStore(err)
		}
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":     "cart_item_updated",
		"user_id":  userID,
		"line_id":  lineID,
		"quantity": quantity,
	})
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, lineID uint) error {
	if err := s.cart.DeleteLine(ctx, lineID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Cart item not found")
		}
		return apperr.FromStore(err)
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":    "cart_item_removed",
		"user_id": userID,
		"line_id": lineID,
	})
	return nil
}

// ClearCart is idempotent; clearing an already-empty cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	if err := s.cart.Clear(ctx, userID); err != nil {
		return apperr.FromStore(err)
	}

	s.publish(ctx, userID, map[string]interface{}{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	return nil
}

func (s *CartService) publish(ctx context.Context, userID uint, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.producer.PublishEvent(pubCtx, events.TopicCartEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicCartEvents, "error", err)
	}
}
