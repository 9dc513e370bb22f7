package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const (
	productsCacheKey = "products"
	productCacheTTL  = 10 * time.Minute
)

func productKey(id string) string {
	return productsCacheKey + ":" + id
}

// ProductService wraps the product store with a cache-aside layer: reads probe
// the cache first and populate it on miss; writes persist first and then
// invalidate both the aggregate and the single-item key.
//
// The cache is never authoritative. Any cache failure degrades to a miss so a
// cache outage cannot fail a request.
type ProductService struct {
	repo  ports.ProductRepository
	cache ports.Cache
	log   zerolog.Logger
}

// NewProductService returns a ProductService. A nil cache yields the uncached
// variant: the same service with a no-op cache injected.
func NewProductService(repo ports.ProductRepository, cache ports.Cache, log zerolog.Logger) *ProductService {
	if cache == nil {
		cache = NopCache{}
	}
	return &ProductService{repo: repo, cache: cache, log: log}
}

func (s *ProductService) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	var cached []*domain.Product
	hit, err := s.cache.Get(ctx, productsCacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", productsCacheKey).Msg("cache read failed, falling back to store")
	} else if hit {
		metrics.CacheRequestsTotal.WithLabelValues("list", "hit").Inc()
		return cached, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("list", "miss").Inc()

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, productsCacheKey, products, productCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", productsCacheKey).Msg("cache write failed")
	}
	return products, nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productKey(id)

	var cached domain.Product
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
	} else if hit {
		metrics.CacheRequestsTotal.WithLabelValues("item", "hit").Inc()
		return &cached, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("item", "miss").Inc()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, product, productCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return product, nil
}

func (s *ProductService) AddProduct(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		SKU:         in.SKU,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	metrics.ProductWritesTotal.WithLabelValues("create").Inc()
	s.invalidate(ctx, product.ID)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ports.ProductInput) error {
	product := &domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		SKU:         in.SKU,
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}

	metrics.ProductWritesTotal.WithLabelValues("update").Inc()
	s.invalidate(ctx, id)
	return nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.ProductWritesTotal.WithLabelValues("delete").Inc()
	s.invalidate(ctx, id)
	return nil
}

// invalidate drops both cache keys touched by a mutation. A failure leaves a
// stale entry that self-heals on TTL expiry, so it is logged and ignored.
func (s *ProductService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Remove(ctx, productsCacheKey, productKey(id)); err != nil {
		s.log.Warn().Err(err).Str("product_id", id).Msg("cache invalidation failed")
	}
}
