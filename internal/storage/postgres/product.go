package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const productColumns = `id::text, name, description, price, image, category, is_featured, created_at`

const (
	listProductsSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at, id`

	listByCategorySQL = `SELECT ` + productColumns + `
		FROM products WHERE category = $1 ORDER BY created_at, id`

	listFeaturedSQL = `SELECT ` + productColumns + `
		FROM products WHERE is_featured ORDER BY created_at, id`

	listNewestSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at DESC, id DESC LIMIT $1`

	sampleSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY random() LIMIT $1`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, description, price, image, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	setFeaturedSQL = `UPDATE products SET is_featured = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// Identifiers are UUIDs; a malformed id is reported as product.ErrNotFound.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return r.collect(ctx, "list products", listProductsSQL)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	return r.collect(ctx, "list products by category", listByCategorySQL, category)
}

func (r *ProductRepository) ListFeatured(ctx context.Context) ([]product.Product, error) {
	return r.collect(ctx, "list featured products", listFeaturedSQL)
}

func (r *ProductRepository) ListNewest(ctx context.Context, limit int) ([]product.Product, error) {
	return r.collect(ctx, "list newest products", listNewestSQL, limit)
}

// Sample picks products with ORDER BY random(), which scans the whole
// table. Fine for catalog sizes this service targets.
func (r *ProductRepository) Sample(ctx context.Context, size int) ([]product.Product, error) {
	return r.collect(ctx, "sample products", sampleSQL, size)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	pid, ok := parseID(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	return r.one(ctx, "get product", getProductByIDSQL, pid)
}

func (r *ProductRepository) Insert(ctx context.Context, np product.NewProduct) (*product.Product, error) {
	return r.one(ctx, "insert product", insertProductSQL,
		uuid.NewString(), np.Name, np.Description, np.Price, np.Image, np.Category,
	)
}

func (r *ProductRepository) SetFeatured(ctx context.Context, id string, featured bool) (*product.Product, error) {
	pid, ok := parseID(id)
	if !ok {
		return nil, product.ErrNotFound
	}
	return r.one(ctx, "set featured", setFeaturedSQL, pid, featured)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	pid, ok := parseID(id)
	if !ok {
		return product.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, deleteProductSQL, pid)
	if err != nil {
		return errors.Wrapf(err, "delete product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Ping reports whether the database accepts connections.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *ProductRepository) collect(ctx context.Context, op, sql string, args ...any) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return products, nil
}

func (r *ProductRepository) one(ctx context.Context, op, sql string, args ...any) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price,
		&p.Image, &p.Category, &p.IsFeatured, &p.CreatedAt,
	)
	return p, err
}

// parseID normalizes a product id. Anything that is not a UUID cannot exist.
func parseID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
