package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/middleware"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/service"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// ProductHandler serves the product endpoints.
type ProductHandler struct {
	productService *service.ProductService
	pageDefaults   service.PageDefaults
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *service.ProductService, pageDefaults service.PageDefaults) *ProductHandler {
	return &ProductHandler{productService: productService, pageDefaults: pageDefaults}
}

// Index handles GET /api/v1/products
func (h *ProductHandler) Index(c *gin.Context) {
	query := c.Request.URL.Query()
	q, err := service.ParseListQuery(query, h.pageDefaults)
	if err != nil {
		utils.RespondError(c, err, "Failed to retrieve products.")
		return
	}

	page, err := h.productService.List(c.Request.Context(), q)
	if err != nil {
		utils.RespondError(c, err, "Failed to retrieve products.")
		return
	}

	envelope := utils.NewPageEnvelope(page.Items, utils.PageParams{
		Page:     page.Page,
		PerPage:  page.PerPage,
		Total:    page.Total,
		LastPage: page.LastPage,
		Count:    len(page.Items),
		Path:     requestPath(c),
		Query:    query,
	})
	utils.Success(c, http.StatusOK, "Products retrieved successfully.", envelope)
}

// Show handles GET /api/v1/products/:id
func (h *ProductHandler) Show(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err, "Failed to retrieve product.")
		return
	}
	utils.Success(c, http.StatusOK, "Product retrieved successfully.", product)
}

// Store handles POST /api/v1/products
func (h *ProductHandler) Store(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		utils.RespondError(c, err, "Failed to add product.")
		return
	}
	utils.Success(c, http.StatusCreated, "Product stored successfully.", product)
}

// Update handles PUT/PATCH /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), middleware.UserID(c), id, &req)
	if err != nil {
		utils.RespondError(c, err, "Failed to update product.")
		return
	}
	utils.Success(c, http.StatusOK, "Product updated successfully.", product)
}

// Destroy handles DELETE /api/v1/products/:id
func (h *ProductHandler) Destroy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		utils.RespondError(c, err, "Failed to delete product.")
		return
	}
	utils.Success(c, http.StatusOK, "Product deleted successfully.", nil)
}

// requestPath returns the absolute URL of the current endpoint without its
// query string. X-Forwarded-Proto is honoured only for http and https; with a
// proxy chain the first value wins.
func requestPath(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	proto, _, _ := strings.Cut(c.GetHeader("X-Forwarded-Proto"), ",")
	switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
	case "http", "https":
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}
