package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	// Image is the public URL of the uploaded asset, or empty when the
	// product has no image.
	Image      string
	Category   string
	IsFeatured bool
	CreatedAt  time.Time
}

// Summary is the reduced projection of a product used for recommendations.
type Summary struct {
	ID          string
	Name        string
	Description string
	Image       string
	Price       decimal.Decimal
}

// Summary projects p to its reduced field set.
func (p Product) Summary() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.Price,
	}
}

// NewProduct holds the fields of a product that is about to be inserted.
// ID and CreatedAt are assigned by the repository.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Category    string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	// List returns every product.
	List(ctx context.Context) ([]Product, error)
	// ListByCategory returns products whose category equals the given slug.
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	// ListFeatured returns products with IsFeatured set.
	ListFeatured(ctx context.Context) ([]Product, error)
	// ListNewest returns at most limit products ordered by CreatedAt descending.
	ListNewest(ctx context.Context, limit int) ([]Product, error)
	// Sample returns at most size distinct products chosen at random.
	Sample(ctx context.Context, size int) ([]Product, error)
	// GetByID returns ErrNotFound when no product has the given id.
	GetByID(ctx context.Context, id string) (*Product, error)
	// Insert stores a new product and returns it with ID and CreatedAt set.
	Insert(ctx context.Context, p NewProduct) (*Product, error)
	// SetFeatured overwrites the featured flag. Returns ErrNotFound when the
	// product is gone.
	SetFeatured(ctx context.Context, id string, featured bool) (*Product, error)
	// Delete removes the product. Returns ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}
