package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/schoolcanteen/canteen-system/internal/core/ports"
)

type CatalogHandler struct {
	catalog ports.CatalogService
}

func NewCatalogHandler(catalog ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List returns the catalog in display order.
//
// @Summary      Products
// @Tags         catalog
// @Produce      json
// @Success      200  {array}  productResponse
// @Router       /v1/products [get]
func (h *CatalogHandler) List(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns a single product.
//
// @Summary      Product
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  productResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/products/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	p, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProductResponse(*p))
}
