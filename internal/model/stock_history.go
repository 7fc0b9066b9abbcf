package model

import "time"

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// StockHistory is one immutable ledger entry. Quantity is the magnitude the
// caller supplied; the signed effect is NewQuantity - PreviousQuantity.
type StockHistory struct {
	ID               string       `db:"id" json:"id"`
	Seq              int64        `db:"seq" json:"-"` // Insertion order, assigned by the store
	ProductID        string       `db:"product_id" json:"product_id"`
	Type             MovementType `db:"type" json:"type"`
	Quantity         int64        `db:"quantity" json:"quantity"`
	PreviousQuantity int64        `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      int64        `db:"new_quantity" json:"new_quantity"`
	Note             string       `db:"note" json:"note"`
	PerformedBy      string       `db:"performed_by" json:"performed_by"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`

	// Joined from products on read
	ProductName string `db:"product_name" json:"product_name,omitempty"`
	ProductSKU  string `db:"product_sku" json:"product_sku,omitempty"`
}

func (h *StockHistory) Delta() int64 {
	return h.NewQuantity - h.PreviousQuantity
}
