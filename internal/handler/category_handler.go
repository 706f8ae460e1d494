package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
)

// CategoryHandler serves the product category catalog.
type CategoryHandler struct {
	loader *catalog.Loader
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(loader *catalog.Loader) *CategoryHandler {
	return &CategoryHandler{loader: loader}
}

// Index handles GET /api/v1/product-categories
func (h *CategoryHandler) Index(c *gin.Context) {
	categories, err := h.loader.Catalog()
	if err != nil {
		log.Error().Err(err).Str("path", h.loader.Path()).Msg("Failed to load category catalog")
		utils.Error(c, http.StatusInternalServerError, utils.ErrInternal.Error(), "Failed to load product categories.")
		return
	}
	utils.Success(c, http.StatusOK, "Product categories retrieved successfully.", gin.H{
		catalog.RootKey: categories,
	})
}
