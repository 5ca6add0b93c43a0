package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/imagestore"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
)

type productFixture struct {
	db     *gorm.DB
	svc    *ProductService
	images *imagestore.Store
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db := newTestDB(t)

	images, err := imagestore.New(t.TempDir())
	require.NoError(t, err)

	return &productFixture{
		db:     db,
		svc:    NewProductService(repository.NewGormProductRepository(db), images, nil, nil),
		images: images,
	}
}

// uploadFile builds a multipart file header the way echo hands one to the
// service.
func uploadFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func (f *productFixture) imageExists(ref string) bool {
	_, err := os.Stat(filepath.Join(f.images.Dir(), filepath.Base(ref)))
	return err == nil
}

func TestProductCreateAndGet(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, ProductInput{
		Name:           "Ryzen 9 7950X",
		Description:    "16-core desktop CPU",
		Price:          549.00,
		Stock:          8,
		Category:       "cpu",
		Brand:          "AMD",
		Specifications: json.RawMessage(`{"cores":16,"socket":"AM5"}`),
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ryzen 9 7950X", got.Name)
	require.NotNil(t, got.Brand)
	require.Equal(t, "AMD", *got.Brand)
	require.JSONEq(t, `{"cores":16,"socket":"AM5"}`, string(got.Specifications))
}

func TestProductGetNotFound(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.svc.Get(context.Background(), 42)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProductCreateWithImage(t *testing.T) {
	f := newProductFixture(t)

	created, err := f.svc.Create(context.Background(), ProductInput{
		Name: "RTX 4070", Price: 599.99, Category: "gpu",
	}, uploadFile(t, "card.png", []byte("png-bytes")))
	require.NoError(t, err)
	require.NotNil(t, created.Image)
	require.True(t, f.imageExists(*created.Image))
}

func TestProductCreateRejectsBadImageType(t *testing.T) {
	f := newProductFixture(t)

	_, err := f.svc.Create(context.Background(), ProductInput{
		Name: "RTX 4070", Price: 599.99, Category: "gpu",
	}, uploadFile(t, "card.exe", []byte("mz")))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	// Nothing was staged.
	entries, err := os.ReadDir(f.images.Dir())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestProductUpdateReplacesImage(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, ProductInput{
		Name: "RTX 4070", Price: 599.99, Category: "gpu",
	}, uploadFile(t, "old.png", []byte("old")))
	require.NoError(t, err)
	oldRef := *created.Image

	updated, err := f.svc.Update(ctx, created.ID, ProductInput{
		Name: "RTX 4070 Super", Price: 649.99, Category: "gpu",
	}, uploadFile(t, "new.jpg", []byte("new")))
	require.NoError(t, err)
	require.Equal(t, "RTX 4070 Super", updated.Name)
	require.NotEqual(t, oldRef, *updated.Image)
	require.True(t, f.imageExists(*updated.Image))
	require.False(t, f.imageExists(oldRef))
}

func TestProductUpdateKeepsImageWhenNoneUploaded(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, ProductInput{
		Name: "RTX 4070", Price: 599.99, Category: "gpu",
	}, uploadFile(t, "card.png", []byte("png")))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, ProductInput{
		Name: "RTX 4070", Price: 579.99, Category: "gpu",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Image)
	require.Equal(t, *created.Image, *updated.Image)
	require.True(t, f.imageExists(*updated.Image))
}

func TestProductDeleteRemovesImageAndCartLines(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, ProductInput{
		Name: "RTX 4070", Price: 599.99, Category: "gpu",
	}, uploadFile(t, "card.png", []byte("png")))
	require.NoError(t, err)

	user := models.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, f.db.Create(&user).Error)
	require.NoError(t, f.db.Create(&models.CartItem{
		UserID: user.ID, ProductID: created.ID, Quantity: 2,
	}).Error)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.False(t, f.imageExists(*created.Image))

	var count int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("product_id = ?", created.ID).Count(&count).Error)
	require.Zero(t, count)

	require.Equal(t, apperr.KindNotFound, apperr.KindOf(f.svc.Delete(ctx, created.ID)))
}

func TestProductList(t *testing.T) {
	f := newProductFixture(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seed := []models.Product{
		{Name: "RTX 4070", Description: "Graphics card", Price: 599.99, Category: "gpu"},
		{Name: "Ryzen 7 7800X3D", Description: "Gaming CPU", Price: 449.00, Category: "cpu"},
		{Name: "Core i7-14700K", Description: "Desktop cpu", Price: 409.00, Category: "cpu"},
	}
	for i := range seed {
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.db.Create(&seed[i]).Error)
	}

	page, err := f.svc.List(ctx, "", "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 3)
	// Newest first.
	require.Equal(t, "Core i7-14700K", page.Items[0].Name)

	page, err = f.svc.List(ctx, "cpu", "", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)

	// Search matches name or description, case-insensitively.
	page, err = f.svc.List(ctx, "", "GRAPHICS", 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "RTX 4070", page.Items[0].Name)

	page, err = f.svc.List(ctx, "", "", 2, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), page.Total)
	require.Equal(t, int64(2), page.Pages)
	require.Len(t, page.Items, 1)
}

func TestSearchWithoutIndex(t *testing.T) {
	f := newProductFixture(t)

	require.False(t, f.svc.SearchEnabled())

	_, _, err := f.svc.Search(context.Background(), "gpu", 1, 10)
	require.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}
