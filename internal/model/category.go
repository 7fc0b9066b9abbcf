package model

// DefaultCategoryColor is used for new categories and for the Uncategorized bucket.
const DefaultCategoryColor = "#6366f1"

type Category struct {
	BaseModel
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description"`
	Color        string  `db:"color" json:"color"`
	CreatedBy    *string `db:"created_by" json:"created_by"`
	ProductCount int     `db:"product_count" json:"product_count"` // Read views only
}
