package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"frontend/internal/format"
	"frontend/internal/models"
	"frontend/internal/service"

	"github.com/gin-gonic/gin"
)

// SortOption is one sortable column header on the marketplace page.
type SortOption struct {
	Label  string
	Field  service.SortField
	Active bool
	Asc    bool
	URL    string
}

var sortLabels = []struct {
	field service.SortField
	label string
}{
	{service.SortQuality, "Quality"},
	{service.SortPrice, "Price"},
	{service.SortTimestamp, "Newest"},
	{service.SortTitle, "Title"},
}

// Marketplace lists datasets with filters and sorting.
// GET /marketplace?category=&min_quality=&max_price=&search=&sort=&order=
func (h *Handler) Marketplace(c *gin.Context) {
	filter := service.DefaultFilter()
	filter.Category = c.Query("category")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if v, err := strconv.ParseFloat(c.Query("min_quality"), 64); err == nil && v >= 0 {
		filter.MinQuality = v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil && v >= 0 {
		filter.MaxPrice = v
	}
	order := service.ParseSort(c.Query("sort"), c.Query("order"))

	ctx := c.Request.Context()
	data := gin.H{
		"Title":      "Marketplace",
		"Filter":     filter,
		"Sort":       order,
		"Sorts":      sortOptions(filter, order),
		"Categories": h.catalog.Categories(ctx),
	}

	var (
		datasets []models.Dataset
		total    int
		err      error
	)
	if filter.Search != "" {
		var result *models.SearchResult
		if result, err = h.catalog.Search(ctx, filter.Search, filter, order); err == nil {
			datasets, total = result.Datasets, result.TotalCount
		}
	} else {
		var list *models.DatasetList
		if list, err = h.catalog.Browse(ctx, filter, order); err == nil {
			datasets, total = list.Datasets, list.TotalCount
		}
	}
	if err != nil {
		data["Error"] = format.ErrorMessage(err)
		data["Retry"] = c.Request.URL.RequestURI()
		h.render(c, statusFor(err), "marketplace.html", data)
		return
	}

	data["Datasets"] = datasets
	data["Total"] = total
	h.render(c, http.StatusOK, "marketplace.html", data)
}

func sortOptions(filter service.Filter, current service.Sort) []SortOption {
	opts := make([]SortOption, 0, len(sortLabels))
	for _, s := range sortLabels {
		next := current.Toggle(s.field)
		opts = append(opts, SortOption{
			Label:  s.label,
			Field:  s.field,
			Active: current.Field == s.field,
			Asc:    current.Asc,
			URL:    marketplaceURL(filter, next),
		})
	}
	return opts
}

func marketplaceURL(filter service.Filter, order service.Sort) string {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.MinQuality > 0 {
		q.Set("min_quality", strconv.FormatFloat(filter.MinQuality, 'f', -1, 64))
	}
	if filter.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64))
	}
	q.Set("sort", string(order.Field))
	q.Set("order", order.Order())
	return "/marketplace?" + q.Encode()
}
