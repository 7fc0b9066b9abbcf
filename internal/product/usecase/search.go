package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/product/dto"
	"github.com/fekuna/omnipos-stock-ledger/pkg/search"
)

const productIndex = "products"

const productMapping = `{
	"mappings": {
		"properties": {
			"sku": { "type": "keyword" },
			"name": { "type": "text" },
			"category_id": { "type": "keyword" },
			"supplier": { "type": "text" },
			"description": { "type": "text" },
			"created_at": { "type": "date" }
		}
	}
}`

// SearchIndex is satisfied by *search.Client.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResult, error)
}

// productDocument holds metadata only. Quantities live in the database and
// are read back when hits are hydrated.
type productDocument struct {
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	CategoryID  string    `json:"category_id,omitempty"`
	Supplier    string    `json:"supplier"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProductDocument(p *model.Product) productDocument {
	doc := productDocument{
		SKU:         p.SKU,
		Name:        p.Name,
		Supplier:    p.Supplier,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
	if p.CategoryID != nil {
		doc.CategoryID = *p.CategoryID
	}
	return doc
}

func buildSearchQuery(f *dto.ProductFilters) map[string]interface{} {
	must := []map[string]interface{}{
		{
			"query_string": map[string]interface{}{
				"query":  "*" + escapeQueryString(f.SearchQuery) + "*",
				"fields": []string{"name^3", "sku", "supplier", "description"},
			},
		},
	}
	if f.CategoryID != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"category_id": f.CategoryID},
		})
	}

	q := map[string]interface{}{
		"query":   map[string]interface{}{"bool": map[string]interface{}{"must": must}},
		"_source": false,
	}
	if f.PageSize > 0 {
		q["from"] = (f.Page - 1) * f.PageSize
		q["size"] = f.PageSize
	}
	return q
}

// escapeQueryString neutralizes query_string operators in user input.
func escapeQueryString(s string) string {
	const reserved = `+-=&|><!(){}[]^"~*?:\/`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, c := range reserved {
			if r == c {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
