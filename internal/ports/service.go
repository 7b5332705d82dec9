package ports

import (
	"context"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

type CatalogService interface {
	LoadCategories(ctx context.Context) ([]domain.Category, *domain.ServiceError)
	LoadSneakers(ctx context.Context) ([]domain.Sneaker, *domain.ServiceError)
	GetSneakersByCategory(ctx context.Context, slug string) ([]domain.Sneaker, *domain.ServiceError)
	GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, bool, *domain.ServiceError)
	GetSneakerBySlug(ctx context.Context, slug string) (domain.Sneaker, bool, *domain.ServiceError)
	CategoryGrid(ctx context.Context, slug string, rarity string) (domain.CategoryGrid, *domain.ServiceError)
	CacheStats(ctx context.Context) domain.CacheStats
	ClearCache(ctx context.Context) error
	InvalidateKey(ctx context.Context, key string) error
}
