package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the backend. The client never
// mutates it; Stock is a snapshot used only for UI bounds.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	Images      Images          `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
}

// InStock reports whether the snapshot shows any units left.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Images is an ordered list of image URLs. The backend sends either plain
// strings or {"url": "..."} objects.
type Images []string

func (i *Images) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Images, 0, len(raw))
	for _, item := range raw {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			if url != "" {
				out = append(out, url)
			}
			continue
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return err
		}
		if obj.URL != "" {
			out = append(out, obj.URL)
		}
	}
	*i = out
	return nil
}
