package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/comphility/backend/internal/models"
)

// CartLine is one cart row joined against the catalog.
type CartLine struct {
	LineID    uint    `json:"cart_id"`
	Quantity  uint    `json:"quantity"`
	ProductID uint    `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     uint    `json:"stock"`
	Category  string  `json:"category"`
	Brand     *string `json:"brand"`
	Image     *string `json:"image"`
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]CartLine, error)
	Add(ctx context.Context, userID, productID, quantity uint) error
	GetLine(ctx context.Context, lineID, userID uint) (*models.CartItem, error)
	SetQuantity(ctx context.Context, lineID, quantity uint) error
	DeleteLine(ctx context.Context, lineID, userID uint) error
	Clear(ctx context.Context, userID uint) error
}

type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) ListByUser(ctx context.Context, userID uint) ([]CartLine, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select(`cart_items.id AS line_id, cart_items.quantity,
			products.id AS product_id, products.name, products.price,
			products.stock, products.category, products.brand, products.image`).
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at DESC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("listing cart for user %d: %w", userID, err)
	}
	return lines, nil
}

// Add inserts the line or increments the existing one in a single atomic
// statement. The composite unique index on (user_id, product_id) makes the
// merge race-free under concurrent adds.
func (r *GormCartRepository) Add(ctx context.Context, userID, productID, quantity uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("adding cart line: %w", err)
	}
	return nil
}

func (r *GormCartRepository) GetLine(ctx context.Context, lineID, userID uint) (*models.CartItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting cart line %d: %w", lineID, err)
	}
	return &item, nil
}

func (r *GormCartRepository) SetQuantity(ctx context.Context, lineID, quantity uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", lineID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("updating cart line %d: %w", lineID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormCartRepository) DeleteLine(ctx context.Context, lineID, userID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("deleting cart line %d: %w", lineID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every line for the user. Clearing an empty cart is not an
// error.
func (r *GormCartRepository) Clear(ctx context.Context, userID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clearing cart for user %d: %w", userID, err)
	}
	return nil
}
