package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/cache"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/clock"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/repository"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/sse"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/catalog"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/pkg/money"
)

// listQueryTimeout bounds a shared list query once it no longer follows any
// single request's context.
const listQueryTimeout = 30 * time.Second

// ProductService provides product listing and ownership-checked mutations.
type ProductService struct {
	db          *sqlx.DB
	productRepo *repository.ProductRepository
	catalog     *catalog.Loader
	listCache   *cache.ProductListCache
	notifier    sse.ProductNotifier
	clock       clock.Clock

	// lists collapses identical list queries that are in flight at once.
	// writes is part of the key so a list issued after a write never joins
	// a query that started before it.
	lists  singleflight.Group
	writes atomic.Uint64
}

// NewProductService constructs a ProductService.
func NewProductService(db *sqlx.DB, productRepo *repository.ProductRepository, categories *catalog.Loader, clk clock.Clock) *ProductService {
	return &ProductService{
		db:          db,
		productRepo: productRepo,
		catalog:     categories,
		notifier:    &sse.NopNotifier{},
		clock:       clk,
	}
}

// SetListCache enables caching of list pages. A nil cache disables it.
func (s *ProductService) SetListCache(c *cache.ProductListCache) {
	s.listCache = c
}

// SetNotifier sets the notifier used for product events.
func (s *ProductService) SetNotifier(n sse.ProductNotifier) {
	if n == nil {
		n = &sse.NopNotifier{}
	}
	s.notifier = n
}

// CreateProductRequest is the body of a create call. Every field is required.
type CreateProductRequest struct {
	Name          *string      `json:"name" validate:"required,min=2,max=255"`
	Brand         *string      `json:"brand" validate:"required,min=2,max=255"`
	Price         *money.Price `json:"price" validate:"-"`
	Category      *string      `json:"category" validate:"required"`
	StockQuantity *int         `json:"stock_quantity" validate:"required,min=0,max=2147483647"`
}

// UpdateProductRequest is the body of an update call. Absent fields keep
// their stored values; at least one field must be present.
type UpdateProductRequest struct {
	Name          *string      `json:"name" validate:"omitempty,min=2,max=255"`
	Brand         *string      `json:"brand" validate:"omitempty,min=2,max=255"`
	Price         *money.Price `json:"price" validate:"-"`
	Category      *string      `json:"category" validate:"omitempty"`
	StockQuantity *int         `json:"stock_quantity" validate:"omitempty,min=0,max=2147483647"`
}

func (r *UpdateProductRequest) empty() bool {
	return r.Name == nil && r.Brand == nil && r.Price == nil && r.Category == nil && r.StockQuantity == nil
}

// List returns one page of products. Pages past the last one come back empty
// with the real totals.
func (s *ProductService) List(ctx context.Context, q ListQuery) (*models.PageResult, error) {
	key := q.CacheKey()
	var version string
	if s.listCache != nil {
		page, v, err := s.listCache.Get(ctx, key)
		switch {
		case err == nil:
			return page, nil
		case !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("product list cache read failed")
		}
		version = v
	}

	flightKey := strconv.FormatUint(s.writes.Load(), 10) + "|" + key
	ch := s.lists.DoChan(flightKey, func() (interface{}, error) {
		// Shared by every caller with the same key, so one caller going away
		// must not cancel it for the others.
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listQueryTimeout)
		defer cancel()
		return s.queryPage(qctx, q)
	})
	var page *models.PageResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			log.Error().Err(res.Err).Str("query", key).Msg("Failed to list products")
			return nil, utils.ErrInternal
		}
		page = res.Val.(*models.PageResult)
	}

	if s.listCache != nil && version != "" {
		if err := s.listCache.Set(ctx, version, key, page); err != nil {
			log.Warn().Err(err).Msg("product list cache write failed")
		}
	}
	return page, nil
}

func (s *ProductService) queryPage(ctx context.Context, q ListQuery) (*models.PageResult, error) {
	offset := (q.Page - 1) * q.PerPage
	items, total, err := s.productRepo.List(ctx, q.Filter, q.Sort, q.PerPage, offset)
	if err != nil {
		return nil, err
	}
	return &models.PageResult{
		Items:    items,
		Page:     q.Page,
		PerPage:  q.PerPage,
		Total:    total,
		LastPage: models.LastPageFor(total, q.PerPage),
	}, nil
}

// Get returns a single product.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to get product")
		return nil, utils.ErrInternal
	}
	return p, nil
}

// Create validates req and stores a product owned by userID.
func (s *ProductService) Create(ctx context.Context, userID int64, req *CreateProductRequest) (*models.Product, error) {
	req.Name = trimmed(req.Name)
	req.Brand = trimmed(req.Brand)
	req.Category = trimmed(req.Category)

	verr := validateStruct(req)
	if req.Price == nil {
		verr.Add("price", "The price field is required.")
	} else {
		checkPrice(verr, *req.Price)
	}
	if req.Category != nil {
		if err := s.checkCategory(verr, *req.Category); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	product := &models.Product{
		UserID:        userID,
		Name:          *req.Name,
		Brand:         *req.Brand,
		Price:         *req.Price,
		Category:      *req.Category,
		StockQuantity: *req.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.productRepo.WithTx(tx).Create(ctx, product)
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to create product")
		return nil, utils.ErrInternal
	}

	s.afterWrite(ctx)
	s.notifier.NotifyProductCreated(product)
	return product, nil
}

// Update applies the fields present in req to a product owned by userID.
// Checks run in order: existence, ownership, then field validation.
func (s *ProductService) Update(ctx context.Context, userID, productID int64, req *UpdateProductRequest) (*models.Product, error) {
	var product *models.Product

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.productRepo.WithTx(tx)
		p, err := s.lockOwned(ctx, repo, userID, productID)
		if err != nil {
			return err
		}

		if err := s.validateUpdate(req); err != nil {
			return err
		}

		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Brand != nil {
			p.Brand = *req.Brand
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Category != nil {
			p.Category = *req.Category
		}
		if req.StockQuantity != nil {
			p.StockQuantity = *req.StockQuantity
		}
		if now := s.clock.Now(); now.After(p.UpdatedAt) {
			p.UpdatedAt = now
		}

		if err := repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product %d: %w", productID, err)
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, s.mutationError(err, "update", userID, productID)
	}

	s.afterWrite(ctx)
	s.notifier.NotifyProductUpdated(product)
	return product, nil
}

// Delete permanently removes a product owned by userID.
func (s *ProductService) Delete(ctx context.Context, userID, productID int64) error {
	var product *models.Product

	err := repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.productRepo.WithTx(tx)
		p, err := s.lockOwned(ctx, repo, userID, productID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, productID); err != nil {
			return fmt.Errorf("delete product %d: %w", productID, err)
		}
		product = p
		return nil
	})
	if err != nil {
		return s.mutationError(err, "delete", userID, productID)
	}

	s.afterWrite(ctx)
	s.notifier.NotifyProductDeleted(product)
	return nil
}

func (s *ProductService) lockOwned(ctx context.Context, repo *repository.ProductRepository, userID, productID int64) (*models.Product, error) {
	p, err := repo.GetByIDForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("load product %d: %w", productID, err)
	}
	if p.UserID != userID {
		return nil, utils.ErrForbidden
	}
	return p, nil
}

func (s *ProductService) validateUpdate(req *UpdateProductRequest) error {
	verr := utils.NewValidationError()
	// A field that is sent must not be blank.
	for _, f := range []struct {
		name  string
		value **string
	}{{"name", &req.Name}, {"brand", &req.Brand}, {"category", &req.Category}} {
		if *f.value != nil && trimmed(*f.value) == nil {
			verr.Add(f.name, fmt.Sprintf("The %s field is required.", f.name))
		}
		*f.value = trimmed(*f.value)
	}

	if req.empty() && !verr.HasErrors() {
		return utils.FieldError("request", "At least one field must be provided.")
	}

	for field, msgs := range validateStruct(req).Fields {
		for _, m := range msgs {
			verr.Add(field, m)
		}
	}
	if req.Price != nil {
		checkPrice(verr, *req.Price)
	}
	if req.Category != nil {
		if err := s.checkCategory(verr, *req.Category); err != nil {
			return err
		}
	}
	return verr.OrNil()
}

// checkCategory adds a field error when key is not in the catalog. It only
// returns an error when the catalog itself cannot be loaded.
func (s *ProductService) checkCategory(verr *utils.ValidationError, key string) error {
	categories, err := s.catalog.Catalog()
	if err != nil {
		log.Error().Err(err).Str("path", s.catalog.Path()).Msg("Failed to load category catalog")
		return utils.ErrInternal
	}
	if !categories.Contains(key) {
		verr.Add("category", "The selected category is invalid.")
	}
	return nil
}

func checkPrice(verr *utils.ValidationError, p money.Price) {
	switch {
	case p.IsNegative():
		verr.Add("price", "The price field must be at least 0.")
	case p.GreaterThan(money.Max):
		verr.Add("price", fmt.Sprintf("The price field must not be greater than %s.", money.Max.StringFixed(money.Scale)))
	case !p.HasValidScale():
		verr.Add("price", "The price field must not have more than 2 decimal places.")
	}
}

// mutationError passes domain errors through and hides everything else.
func (s *ProductService) mutationError(err error, op string, userID, productID int64) error {
	if errors.Is(err, utils.ErrNotFound) || errors.Is(err, utils.ErrForbidden) || errors.Is(err, utils.ErrValidation) {
		return err
	}
	log.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msgf("Failed to %s product", op)
	return utils.ErrInternal
}

func (s *ProductService) afterWrite(ctx context.Context) {
	s.writes.Add(1)
	if s.listCache == nil {
		return
	}
	if err := s.listCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("product list cache invalidation failed")
	}
}
