package domain

import (
	"errors"
	"time"
)

// CartSchemaVersion tags persisted carts. Documents carrying any other
// version are discarded on load.
const CartSchemaVersion = 1

var ErrSchemaMismatch = errors.New("cart schema version mismatch")

// CartItems maps productID -> variant -> quantity. Quantities are always > 0
// and no product maps to an empty variant set.
type CartItems map[string]map[Variant]int

// CartDocument is the flat persisted form of the cart.
type CartDocument struct {
	Version   int                       `json:"version" bson:"version"`
	Items     map[string]map[string]int `json:"items" bson:"items"`
	UpdatedAt time.Time                 `json:"updatedAt" bson:"updated_at"`
}

// NewCartDocument encodes items at the current schema version. Entries that
// cannot be encoded or have non-positive quantities are left out.
func NewCartDocument(items CartItems) CartDocument {
	doc := CartDocument{
		Version: CartSchemaVersion,
		Items:   make(map[string]map[string]int, len(items)),
	}
	for productID, variants := range items {
		encoded := make(map[string]int, len(variants))
		for v, qty := range variants {
			if qty <= 0 {
				continue
			}
			key, err := v.Key()
			if err != nil {
				continue
			}
			encoded[key] = qty
		}
		if len(encoded) > 0 {
			doc.Items[productID] = encoded
		}
	}
	return doc
}

// CartItems decodes the document. Undecodable keys and non-positive
// quantities are dropped so a damaged document can never corrupt the cart.
func (d CartDocument) CartItems() (CartItems, error) {
	if d.Version != CartSchemaVersion {
		return nil, ErrSchemaMismatch
	}

	items := make(CartItems, len(d.Items))
	for productID, variants := range d.Items {
		if productID == "" {
			continue
		}
		decoded := make(map[Variant]int, len(variants))
		for key, qty := range variants {
			if qty <= 0 {
				continue
			}
			v, err := DecodeVariant(key)
			if err != nil {
				continue
			}
			decoded[v] += qty
		}
		if len(decoded) > 0 {
			items[productID] = decoded
		}
	}
	return items, nil
}

// Clone returns a deep copy.
func (c CartItems) Clone() CartItems {
	out := make(CartItems, len(c))
	for productID, variants := range c {
		inner := make(map[Variant]int, len(variants))
		for v, qty := range variants {
			inner[v] = qty
		}
		out[productID] = inner
	}
	return out
}

// Units is the total quantity across all entries.
func (c CartItems) Units() int {
	n := 0
	for _, variants := range c {
		for _, qty := range variants {
			n += qty
		}
	}
	return n
}
