package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pelyams/sneaker_house_service/internal/domain"
	"github.com/pelyams/sneaker_house_service/internal/loader"
)

const (
	CategoriesKey = "/sneakers/categories.json"
	SneakersKey   = "/sneakers/products.json"

	placeholderImage    = "/placeholder.svg"
	placeholderBlurb    = "Premium collection of limited edition sneakers"
	fallbackCategoryLen = 4
)

// placeholderCategories is what the landing page shows when categories.json
// cannot be loaded. A fresh slice every call so callers may mutate it.
func placeholderCategories() []domain.Category {
	cats := make([]domain.Category, 0, fallbackCategoryLen)
	for _, c := range [][2]string{
		{"Jordan", "jordan"},
		{"Nike SB", "nike-sb"},
		{"Yeezy", "yeezy"},
		{"Supreme", "supreme"},
	} {
		cats = append(cats, domain.Category{Name: c[0], Slug: c[1], Count: 0, Featured: placeholderImage})
	}
	return cats
}

type CatalogService struct {
	loader *loader.Loader
}

func NewCatalogService(l *loader.Loader) *CatalogService {
	return &CatalogService{loader: l}
}

// absorbed collects errors replaced by fallback data so they can be reported
// as non-critical.
type absorbed struct {
	errs []error
}

func (a *absorbed) add(err error) { a.errs = append(a.errs, err) }

func (a *absorbed) serviceError() *domain.ServiceError {
	if len(a.errs) == 0 {
		return nil
	}
	return domain.NewServiceError(nil, a.errs)
}

func (s *CatalogService) loadCategories(ctx context.Context, a *absorbed) []domain.Category {
	fallback := domain.CategoriesPayload{Categories: placeholderCategories()}
	// fallback is always set, so the error is always nil
	data, _ := loader.FetchData(ctx, s.loader, CategoriesKey, loader.Options[domain.CategoriesPayload]{
		Fallback:   &fallback,
		OnFallback: a.add,
	})
	return data.Categories
}

func (s *CatalogService) loadSneakers(ctx context.Context, a *absorbed) []domain.Sneaker {
	fallback := domain.SneakersPayload{Sneakers: []domain.Sneaker{}}
	data, _ := loader.FetchData(ctx, s.loader, SneakersKey, loader.Options[domain.SneakersPayload]{
		Fallback:   &fallback,
		OnFallback: a.add,
	})
	return data.Sneakers
}

func (s *CatalogService) LoadCategories(ctx context.Context) ([]domain.Category, *domain.ServiceError) {
	var a absorbed
	cats := s.loadCategories(ctx, &a)
	return cats, a.serviceError()
}

func (s *CatalogService) LoadSneakers(ctx context.Context) ([]domain.Sneaker, *domain.ServiceError) {
	var a absorbed
	sneakers := s.loadSneakers(ctx, &a)
	return sneakers, a.serviceError()
}

func bySlugBrand(sneakers []domain.Sneaker, slug string) []domain.Sneaker {
	res := make([]domain.Sneaker, 0)
	for _, s := range sneakers {
		if strings.EqualFold(s.Brand, slug) {
			res = append(res, s)
		}
	}
	return res
}

// GetSneakersByCategory keeps the sneakers whose brand equals slug ignoring
// case, in catalog order.
func (s *CatalogService) GetSneakersByCategory(ctx context.Context, slug string) ([]domain.Sneaker, *domain.ServiceError) {
	var a absorbed
	res := bySlugBrand(s.loadSneakers(ctx, &a), slug)
	return res, a.serviceError()
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, bool, *domain.ServiceError) {
	var a absorbed
	for _, c := range s.loadCategories(ctx, &a) {
		if c.Slug == slug {
			return c, true, a.serviceError()
		}
	}
	return domain.Category{}, false, a.serviceError()
}

func (s *CatalogService) GetSneakerBySlug(ctx context.Context, slug string) (domain.Sneaker, bool, *domain.ServiceError) {
	var a absorbed
	for _, sn := range s.loadSneakers(ctx, &a) {
		if sn.Slug == slug {
			return sn, true, a.serviceError()
		}
	}
	return domain.Sneaker{}, false, a.serviceError()
}

// FilterByRarity narrows a list to one rarity tier; "all" or "" keeps everything.
func FilterByRarity(sneakers []domain.Sneaker, filter string) ([]domain.Sneaker, error) {
	if filter == "" || filter == domain.RarityAll {
		return sneakers, nil
	}
	r := domain.Rarity(filter)
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown rarity filter %q", domain.ErrInvalidInput, filter)
	}
	res := make([]domain.Sneaker, 0, len(sneakers))
	for _, s := range sneakers {
		if s.Rarity == r {
			res = append(res, s)
		}
	}
	return res, nil
}

func titleFromSlug(slug string) string {
	if slug == "" {
		return slug
	}
	r, size := utf8.DecodeRuneInString(slug)
	return string(unicode.ToUpper(r)) + slug[size:]
}

// CategoryGrid assembles the per-category page. An unknown slug still gets a
// page, named after the slug, like the storefront does.
func (s *CatalogService) CategoryGrid(ctx context.Context, slug string, rarity string) (domain.CategoryGrid, *domain.ServiceError) {
	var a absorbed
	category, found := domain.Category{}, false
	for _, c := range s.loadCategories(ctx, &a) {
		if c.Slug == slug {
			category, found = c, true
			break
		}
	}
	if !found {
		category = domain.Category{Name: titleFromSlug(slug), Slug: slug, Description: placeholderBlurb}
	}

	inCategory := bySlugBrand(s.loadSneakers(ctx, &a), slug)
	shown, err := FilterByRarity(inCategory, rarity)
	if err != nil {
		return domain.CategoryGrid{}, domain.NewServiceError(err, a.errs)
	}
	return domain.CategoryGrid{
		Category: category,
		Sneakers: shown,
		Shown:    len(shown),
		Total:    len(inCategory),
	}, a.serviceError()
}

func (s *CatalogService) CacheStats(ctx context.Context) domain.CacheStats {
	return s.loader.CacheStats(ctx)
}

func (s *CatalogService) ClearCache(ctx context.Context) error {
	return s.loader.ClearCache(ctx)
}

func (s *CatalogService) InvalidateKey(ctx context.Context, key string) error {
	return s.loader.InvalidateKey(ctx, key)
}
