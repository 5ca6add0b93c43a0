package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/service"
	"github.com/comphility/backend/internal/util"
)

type ProductHandler struct {
	Products *service.ProductService
}

func (h *ProductHandler) List(c echo.Context) error {
	page := queryIntDefault(c, "page", 1)
	limit := queryIntDefault(c, "limit", util.DefaultPageSize)

	res, err := h.Products.List(c.Request().Context(),
		c.QueryParam("category"), c.QueryParam("search"), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"products": res.Items,
		"pagination": echo.Map{
			"page":  res.Page,
			"limit": res.Limit,
			"total": res.Total,
			"pages": res.Pages,
		},
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.Products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// productForm parses the multipart form the admin console submits.
// Specifications arrive as a JSON string field.
func productForm(c echo.Context) (service.ProductInput, *multipart.FileHeader, error) {
	var in service.ProductInput

	in.Name = c.FormValue("name")
	in.Description = c.FormValue("description")
	in.Category = c.FormValue("category")
	in.Brand = c.FormValue("brand")

	if in.Name == "" {
		return in, nil, apperr.Validation("Name is required")
	}
	if in.Category == "" {
		return in, nil, apperr.Validation("Category is required")
	}

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil || price < 0 {
		return in, nil, apperr.Validation("Price must be a non-negative number")
	}
	in.Price = price

	if raw := c.FormValue("stock"); raw != "" {
		stock, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return in, nil, apperr.Validation("Stock must be a non-negative integer")
		}
		in.Stock = uint(stock)
	}

	if raw := c.FormValue("specifications"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return in, nil, apperr.Validation("Specifications must be valid JSON")
		}
		in.Specifications = json.RawMessage(raw)
	}

	image, err := c.FormFile("image")
	if err != nil {
		image = nil
	}
	return in, image, nil
}

func (h *ProductHandler) Create(c echo.Context) error {
	in, image, err := productForm(c)
	if err != nil {
		return err
	}

	product, err := h.Products.Create(c.Request().Context(), in, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	in, image, err := productForm(c)
	if err != nil {
		return err
	}

	product, err := h.Products.Update(c.Request().Context(), id, in, image)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperr.Validation("Query parameter 'q' is required")
	}

	page := queryIntDefault(c, "page", 1)
	limit := queryIntDefault(c, "limit", util.DefaultPageSize)

	total, products, err := h.Products.Search(c.Request().Context(), q, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total":    total,
		"products": products,
	})
}
