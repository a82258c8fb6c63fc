package domain

import "regexp"

var objectIDPattern = regexp.MustCompile(`^[a-fA-F0-9]{24}$`)

// StockItem is one row of a stock decrement request.
type StockItem struct {
	ProductID string  `json:"productId"`
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Quantity  int     `json:"quantity"`
}

// IsObjectID reports whether id looks like a 24 hex character backend id.
func IsObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

// Valid rows carry a backend id and a positive quantity.
func (s StockItem) Valid() bool {
	return IsObjectID(s.ProductID) && s.Quantity > 0
}

// StockItemsFrom maps line items to stock rows without filtering.
func StockItemsFrom(items []LineItem) []StockItem {
	out := make([]StockItem, len(items))
	for i, item := range items {
		out[i] = StockItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		}
	}
	return out
}
