package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/events"
	"github.com/comphility/backend/internal/imagestore"
	"github.com/comphility/backend/internal/logging"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
	"github.com/comphility/backend/internal/search"
	"github.com/comphility/backend/internal/util"
)

// ProductService manages the catalog, the image files tied to product rows
// and the search-index mirror.
type ProductService struct {
	products repository.ProductRepository
	images   *imagestore.Store
	index    *search.Index
	producer *events.Producer
}

func NewProductService(products repository.ProductRepository, images *imagestore.Store, index *search.Index, producer *events.Producer) *ProductService {
	return &ProductService{
		products: products,
		images:   images,
		index:    index,
		producer: producer,
	}
}

type ProductInput struct {
	Name           string
	Description    string
	Price          float64
	Stock          uint
	Category       string
	Brand          string
	Specifications json.RawMessage
}

type ProductPage struct {
	Items []models.Product
	Page  int
	Limit int
	Total int64
	Pages int64
}

func (s *ProductService) List(ctx context.Context, category, searchText string, page, limit int) (*ProductPage, error) {
	offset, limit := util.Paginate(page, limit)
	if page < 1 {
		page = 1
	}

	items, total, err := s.products.List(ctx, repository.ListProductsParams{
		Category: category,
		Search:   searchText,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	return &ProductPage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: util.TotalPages(total, limit),
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.FromStore(err)
	}
	return product, nil
}

// Create stores the image first, then the row. If the row insert fails the
// staged file is removed so no orphan is left behind.
func (s *ProductService) Create(ctx context.Context, in ProductInput, image *multipart.FileHeader) (*models.Product, error) {
	product := &models.Product{
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Stock:          in.Stock,
		Category:       in.Category,
		Specifications: in.Specifications,
	}
	if in.Brand != "" {
		product.Brand = &in.Brand
	}

	if image != nil {
		ref, err := s.images.Save(image)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		product.Image = &ref
	}

	if err := s.products.Create(ctx, product); err != nil {
		if product.Image != nil {
			s.removeImage(ctx, *product.Image)
		}
		return nil, apperr.FromStore(err)
	}

	s.syncIndex(ctx, product)
	s.publish(ctx, map[string]interface{}{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// Update overwrites the product. A new image is staged before the row write
// and the old file is deleted only after the write succeeds.
func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput, image *multipart.FileHeader) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.FromStore(err)
	}

	oldImage := product.Image
	var staged string
	if image != nil {
		staged, err = s.images.Save(image)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		product.Image = &staged
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Stock = in.Stock
	product.Category = in.Category
	product.Specifications = in.Specifications
	if in.Brand != "" {
		product.Brand = &in.Brand
	} else {
		product.Brand = nil
	}

	if err := s.products.Update(ctx, product); err != nil {
		if staged != "" {
			s.removeImage(ctx, staged)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.FromStore(err)
	}

	if staged != "" && oldImage != nil {
		s.removeImage(ctx, *oldImage)
	}

	s.syncIndex(ctx, product)
	s.publish(ctx, map[string]interface{}{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

// Delete removes the row (cart lines cascade at the store level), then the
// image file. A failed file deletion does not undo the row change.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		return apperr.FromStore(err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		return apperr.FromStore(err)
	}

	if product.Image != nil {
		s.removeImage(ctx, *product.Image)
	}

	if err := s.index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("search index delete failed", "product_id", id, "error", err)
	}
	s.publish(ctx, map[string]interface{}{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

// Search serves fuzzy catalog search from the ES mirror.
func (s *ProductService) Search(ctx context.Context, query string, page, limit int) (int64, []models.Product, error) {
	from, size := util.Paginate(page, limit)
	total, items, err := s.index.Search(ctx, query, from, size)
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindUnavailable, "Search is unavailable", err)
	}
	return total, items, nil
}

func (s *ProductService) SearchEnabled() bool { return s.index.Enabled() }

func (s *ProductService) removeImage(ctx context.Context, ref string) {
	if err := s.images.Remove(ref); err != nil {
		logging.FromContext(ctx).Error("image delete failed", "image", ref, "error", err)
	}
}

func (s *ProductService) syncIndex(ctx context.Context, product *models.Product) {
	if err := s.index.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Error("search index update failed", "product_id", product.ID, "error", err)
	}
}

func (s *ProductService) publish(ctx context.Context, event map[string]interface{}) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.producer.PublishEvent(pubCtx, events.TopicProductEvents, fmt.Sprint(event["product_id"]), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicProductEvents, "error", err)
	}
}
