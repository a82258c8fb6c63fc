package checkout

import (
	"cmp"
	"slices"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves a cart entry against the catalog.
type ProductLookup interface {
	Product(id string) (domain.Product, bool)
}

// BuildLineItems joins cart entries with catalog products. Entries are
// visited by product id and then variant key so the same cart always yields
// the same payload. Unknown products and non-positive quantities are dropped.
func BuildLineItems(items domain.CartItems, products ProductLookup) []domain.LineItem {
	productIDs := make([]string, 0, len(items))
	for id := range items {
		productIDs = append(productIDs, id)
	}
	slices.Sort(productIDs)

	out := make([]domain.LineItem, 0, len(productIDs))
	for _, id := range productIDs {
		product, ok := products.Product(id)
		if !ok {
			continue
		}

		variants := make([]domain.Variant, 0, len(items[id]))
		for v := range items[id] {
			variants = append(variants, v)
		}
		slices.SortFunc(variants, func(a, b domain.Variant) int {
			return cmp.Compare(a.String(), b.String())
		})

		for _, v := range variants {
			qty := items[id][v]
			if qty <= 0 {
				continue
			}
			out = append(out, domain.NewLineItem(product, v, qty))
		}
	}
	return out
}

func Subtotal(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// Total is the sum of line item subtotals plus the shipping fee.
func Total(items []domain.LineItem, shippingFee decimal.Decimal) decimal.Decimal {
	return Subtotal(items).Add(shippingFee)
}

func countUnits(items []domain.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
