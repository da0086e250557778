package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu       sync.Mutex
	products map[string]product.Product
	nextID   int
	calls    map[string]int

	// errs forces the named method to fail.
	errs map[string]error
	// afterInsert runs once an insert has been stored.
	afterInsert func()
	// blockInsert makes Insert wait for its context to end.
	blockInsert bool
}

func newFakeRepo(products ...product.Product) *fakeRepo {
	r := &fakeRepo{
		products: make(map[string]product.Product),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeRepo) enter(ctx context.Context, method string) error {
	r.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.errs[method]
}

func (r *fakeRepo) callCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// sorted returns the stored products ordered by CreatedAt ascending.
func (r *fakeRepo) sorted(keep func(product.Product) bool) []product.Product {
	out := make([]product.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeRepo) List(ctx context.Context) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "List"); err != nil {
		return nil, err
	}
	return r.sorted(nil), nil
}

func (r *fakeRepo) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "ListByCategory"); err != nil {
		return nil, err
	}
	return r.sorted(func(p product.Product) bool { return p.Category == category }), nil
}

func (r *fakeRepo) ListFeatured(ctx context.Context) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "ListFeatured"); err != nil {
		return nil, err
	}
	return r.sorted(func(p product.Product) bool { return p.IsFeatured }), nil
}

func (r *fakeRepo) ListNewest(ctx context.Context, limit int) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "ListNewest"); err != nil {
		return nil, err
	}
	all := r.sorted(nil)
	slices.Reverse(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeRepo) Sample(ctx context.Context, size int) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "Sample"); err != nil {
		return nil, err
	}
	all := r.sorted(nil)
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if len(all) > size {
		all = all[:size]
	}
	return all, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (r *fakeRepo) Insert(ctx context.Context, np product.NewProduct) (*product.Product, error) {
	if r.blockInsert {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "Insert"); err != nil {
		return nil, err
	}
	r.nextID++
	p := product.Product{
		ID:          fmt.Sprintf("p%d", r.nextID),
		Name:        np.Name,
		Description: np.Description,
		Price:       np.Price,
		Image:       np.Image,
		Category:    np.Category,
		CreatedAt:   baseTime.Add(time.Duration(r.nextID) * time.Second),
	}
	r.products[p.ID] = p
	if r.afterInsert != nil {
		r.afterInsert()
	}
	return &p, nil
}

func (r *fakeRepo) SetFeatured(ctx context.Context, id string, featured bool) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "SetFeatured"); err != nil {
		return nil, err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p.IsFeatured = featured
	r.products[id] = p
	return &p, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(ctx, "Delete"); err != nil {
		return err
	}
	if _, ok := r.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

type fakeAssets struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	// noURL makes Upload succeed without reporting a location.
	noURL bool
	// blockDelete makes Delete wait for its context to end.
	blockDelete bool

	uploads []string
	deleted []string
}

func (a *fakeAssets) Upload(_ context.Context, source, namespace string) (*Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}
	a.uploads = append(a.uploads, source)
	if a.noURL {
		return &Asset{}, nil
	}
	name := fmt.Sprintf("img%d", len(a.uploads))
	return &Asset{URL: "https://cdn.example.com/catalog/" + namespace + "/" + name}, nil
}

func (a *fakeAssets) Delete(ctx context.Context, assetID string) error {
	if a.blockDelete {
		<-ctx.Done()
		return ctx.Err()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleteErr != nil {
		return a.deleteErr
	}
	a.deleted = append(a.deleted, assetID)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int

	// blockGet makes Get wait for its context to end.
	blockGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets++
	block := c.blockGet
	c.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

// expire drops every entry, as if the TTL elapsed.
func (c *fakeCache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// --- Helpers ---

var errBoom = errors.New("boom")

func ids[T interface{ product.Product | product.Summary }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		switch v := any(it).(type) {
		case product.Product:
			out[i] = v.ID
		case product.Summary:
			out[i] = v.ID
		}
	}
	sort.Strings(out)
	return out
}

func featuredIDs(r *fakeRepo) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, p := range r.products {
		if p.IsFeatured {
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	return out
}
