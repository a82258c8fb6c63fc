package catalog

import (
	"slices"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

type Sort string

const (
	SortDefault   Sort = "default"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"

	// AllCategories disables the category filter.
	AllCategories = "all"
)

// ParseSort maps unknown values to SortDefault.
func ParseSort(raw string) Sort {
	switch s := Sort(strings.ToLower(strings.TrimSpace(raw))); s {
	case SortPriceAsc, SortPriceDesc:
		return s
	default:
		return SortDefault
	}
}

// Criteria are the user controlled inputs of the product grid.
type Criteria struct {
	Search   string
	Category string
	Sort     Sort
}

// View filters and sorts products without touching the input slice.
// Search is a case-insensitive substring match on name, description or
// category. Category is an exact match after trimming and lowercasing.
// Sorting is stable, so SortDefault keeps arrival order.
func View(products []domain.Product, c Criteria) []domain.Product {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	category := normalizeCategory(c.Category)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		if category != "" && category != AllCategories && normalizeCategory(p.Category) != category {
			continue
		}
		out = append(out, p)
	}

	switch c.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	}
	return out
}

func matchesSearch(p domain.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Categories lists the distinct normalized categories, sorted.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range products {
		c := normalizeCategory(p.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
