package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/comphility/backend/internal/models"
)

type ListProductsParams struct {
	Category string
	Search   string
	Offset   int
	Limit    int
}

// ProductRepository is the catalog store.
type ProductRepository interface {
	List(ctx context.Context, p ListProductsParams) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context, p ListProductsParams) ([]models.Product, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if p.Category != "" {
		q = q.Where("category = ?", p.Category)
	}
	if p.Search != "" {
		// Case-insensitive substring match on name or description.
		like := "%" + p.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return items, total, nil
}

func (r *GormProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Save(product)
	if res.Error != nil {
		return fmt.Errorf("updating product %d: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
