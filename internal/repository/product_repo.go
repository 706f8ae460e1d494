package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/pkg/query"
)

const productsTable = "products"

var productColumns = []string{
	"id", "user_id", "name", "brand", "price", "category", "stock_quantity", "created_at", "updated_at",
}

// ProductRepository handles data access for products.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ProductRepository) WithTx(tx *sqlx.Tx) *ProductRepository {
	return &ProductRepository{db: tx}
}

// List returns one page of products matching filter together with the total
// number of matches. Rows are ordered by the requested sort, then updated_at
// and id ascending, so equal sort keys always come back in the same order.
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter, sort models.ProductSort, limit, offset int) ([]models.Product, int, error) {
	base := query.From(productsTable)
	if filter.Name != "" {
		base = base.Where(query.ContainsFold("name", filter.Name))
	}
	if filter.Brand != "" {
		base = base.Where(query.ContainsFold("brand", filter.Brand))
	}
	if filter.Category != "" {
		base = base.Where(query.Eq("category", filter.Category))
	}

	countStmt := base.Count().Build()
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countStmt.SQL), countStmt.Args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	products := []models.Product{}
	if total == 0 || offset >= total {
		return products, total, nil
	}

	listStmt := orderProducts(base.Select(productColumns...), sort).
		Limit(int64(limit)).
		Offset(int64(offset)).
		Build()
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(listStmt.SQL), listStmt.Args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func orderProducts(b *query.Builder, sort models.ProductSort) *query.Builder {
	if sort.Field != "" {
		dir := query.Asc
		if sort.Desc {
			dir = query.Desc
		}
		b = b.OrderBy(string(sort.Field), dir)
	}
	if sort.Field != models.SortUpdatedAt {
		b = b.OrderBy(string(models.SortUpdatedAt), query.Asc)
	}
	return b.OrderBy("id", query.Asc)
}

// GetByID returns a single product by id, or sql.ErrNoRows.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	stmt := query.From(productsTable).Select(productColumns...).Where(query.Eq("id", id)).Build()

	var p models.Product
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(stmt.SQL), stmt.Args...); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDForUpdate is GetByID that also locks the row on PostgreSQL. It must
// run inside a transaction; SQLite already serializes writers.
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	stmt := query.From(productsTable).Select(productColumns...).Where(query.Eq("id", id)).Build()
	q := stmt.SQL
	if r.db.DriverName() == "postgres" {
		q += " FOR UPDATE"
	}

	var p models.Product
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(q), stmt.Args...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts product and sets its ID.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	const q = `
        INSERT INTO products (user_id, name, brand, price, category, stock_quantity, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id`

	return r.db.QueryRowxContext(ctx, r.db.Rebind(q),
		product.UserID,
		product.Name,
		product.Brand,
		product.Price,
		product.Category,
		product.StockQuantity,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
}

// Update writes the editable columns of product. user_id and created_at are
// never touched. Returns sql.ErrNoRows when the product no longer exists.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	const q = `
        UPDATE products
        SET name = ?, brand = ?, price = ?, category = ?, stock_quantity = ?, updated_at = ?
        WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		product.Name,
		product.Brand,
		product.Price,
		product.Category,
		product.StockQuantity,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a product permanently. Returns sql.ErrNoRows when nothing was deleted.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
