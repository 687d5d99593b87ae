package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"frontend/internal/cache"
	"frontend/internal/models"

	"go.uber.org/zap"
)

const (
	BrowseLimit     = 50
	DefaultMaxPrice = 1000.0
)

// CatalogAPI is the part of the marketplace client the catalog reads.
type CatalogAPI interface {
	ListDatasets(ctx context.Context, params models.ListParams) (*models.DatasetList, error)
	SearchDatasets(ctx context.Context, params models.SearchParams) (*models.SearchResult, error)
	GetCategories(ctx context.Context) (*models.CategoryList, error)
	GetMarketplaceStats(ctx context.Context) *models.MarketplaceStats
}

// Filter holds the marketplace filter form.
type Filter struct {
	Category   string
	MinQuality float64
	MaxPrice   float64
	Search     string
}

func DefaultFilter() Filter {
	return Filter{MaxPrice: DefaultMaxPrice}
}

// Params converts the filter into list parameters, sending only set values.
func (f Filter) Params() models.ListParams {
	params := models.ListParams{
		Category: f.Category,
		Search:   strings.TrimSpace(f.Search),
		Limit:    BrowseLimit,
	}
	if f.MinQuality > 0 {
		q := f.MinQuality
		params.MinQuality = &q
	}
	if f.MaxPrice > 0 {
		p := f.MaxPrice
		params.MaxPrice = &p
	}
	return params
}

type SortField string

const (
	SortQuality   SortField = "quality_score"
	SortPrice     SortField = "price"
	SortTimestamp SortField = "timestamp"
	SortTitle     SortField = "title"
)

// Sort orders catalog results. The zero value sorts by quality, best first.
type Sort struct {
	Field SortField
	Asc   bool
}

func ParseSort(field, order string) Sort {
	s := Sort{Field: SortField(field), Asc: order == "asc"}
	switch s.Field {
	case SortQuality, SortPrice, SortTimestamp, SortTitle:
	default:
		s.Field = SortQuality
		s.Asc = false
	}
	return s
}

// Toggle flips the direction when field is already selected, otherwise
// selects field descending.
func (s Sort) Toggle(field SortField) Sort {
	if s.Field == field {
		return Sort{Field: field, Asc: !s.Asc}
	}
	return Sort{Field: field}
}

func (s Sort) Order() string {
	if s.Asc {
		return "asc"
	}
	return "desc"
}

// Apply sorts datasets in place, keeping equal elements in API order.
func (s Sort) Apply(datasets []models.Dataset) {
	less := func(a, b models.Dataset) bool {
		switch s.Field {
		case SortPrice:
			return a.Price < b.Price
		case SortTimestamp:
			return a.CreatedAt().Before(b.CreatedAt())
		case SortTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			return a.QualityScore < b.QualityScore
		}
	}
	sort.SliceStable(datasets, func(i, j int) bool {
		if s.Asc {
			return less(datasets[i], datasets[j])
		}
		return less(datasets[j], datasets[i])
	})
}

type Catalog struct {
	api    CatalogAPI
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalog(api CatalogAPI, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Catalog {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Catalog{api: api, cache: c, ttl: ttl, logger: logger}
}

// Browse lists datasets matching filter, sorted locally.
func (c *Catalog) Browse(ctx context.Context, filter Filter, order Sort) (*models.DatasetList, error) {
	list, err := c.api.ListDatasets(ctx, filter.Params())
	if err != nil {
		return nil, err
	}
	order.Apply(list.Datasets)
	return list, nil
}

// Search runs a free-text query through the search endpoint.
func (c *Catalog) Search(ctx context.Context, query string, filter Filter, order Sort) (*models.SearchResult, error) {
	params := models.SearchParams{
		Query:    strings.TrimSpace(query),
		Category: filter.Category,
		Limit:    BrowseLimit,
	}
	if filter.MinQuality > 0 {
		q := filter.MinQuality
		params.MinQuality = &q
	}
	if filter.MaxPrice > 0 {
		p := filter.MaxPrice
		params.MaxPrice = &p
	}

	result, err := c.api.SearchDatasets(ctx, params)
	if err != nil {
		return nil, err
	}
	order.Apply(result.Datasets)
	return result, nil
}

// Categories returns the backend's category list, falling back to the
// built-in list when the API fails.
func (c *Catalog) Categories(ctx context.Context) []string {
	var cached models.CategoryList
	if err := cache.GetJSON(ctx, c.cache, "categories", &cached); err == nil {
		return cached.Categories
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("Category cache read failed", zap.Error(err))
	}

	list, err := c.api.GetCategories(ctx)
	if err != nil || len(list.Categories) == 0 {
		if err != nil {
			c.logger.Warn("Failed to load categories", zap.Error(err))
		}
		out := make([]string, len(models.Categories))
		for i, cat := range models.Categories {
			out[i] = string(cat)
		}
		return out
	}

	if err := cache.SetJSON(ctx, c.cache, "categories", list, c.ttl); err != nil {
		c.logger.Warn("Category cache write failed", zap.Error(err))
	}
	return list.Categories
}

// Stats returns marketplace statistics, cached for the configured TTL.
// Zeroed fallbacks are not cached.
func (c *Catalog) Stats(ctx context.Context) *models.MarketplaceStats {
	var cached models.MarketplaceStats
	if err := cache.GetJSON(ctx, c.cache, "stats", &cached); err == nil {
		return &cached
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("Stats cache read failed", zap.Error(err))
	}

	stats := c.api.GetMarketplaceStats(ctx)
	if stats.Datasets.TotalCount > 0 || stats.Transactions.TotalTransactions > 0 {
		if err := cache.SetJSON(ctx, c.cache, "stats", stats, c.ttl); err != nil {
			c.logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	return stats
}
