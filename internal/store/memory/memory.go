// Package memory is an in-process store implementing the product, category
// and stock repositories. Every operation holds one mutex, so multi-record
// writes are atomic with respect to each other.
package memory

import (
	"errors"
	"sync"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

// Fault operation names passed to a FaultFunc.
const (
	OpMovementCommit = "stock.commit"
	OpProductCreate  = "product.create"
	OpProductUpdate  = "product.update"
	OpProductDelete  = "product.delete"
	OpCategoryWrite  = "category.write"
)

// FaultFunc is consulted right before a write is applied. A non-nil error
// aborts the write with nothing persisted.
type FaultFunc func(op string) error

type DB struct {
	mu         sync.Mutex
	products   map[string]model.Product
	skus       map[string]string // normalized sku -> product id
	categories map[string]model.Category
	history    []model.StockHistory
	seq        int64
	fault      FaultFunc
}

func New() *DB {
	return &DB{
		products:   make(map[string]model.Product),
		skus:       make(map[string]string),
		categories: make(map[string]model.Category),
	}
}

func (db *DB) SetFault(f FaultFunc) {
	db.mu.Lock()
	db.fault = f
	db.mu.Unlock()
}

func (db *DB) Products() *ProductRepository   { return &ProductRepository{db: db} }
func (db *DB) Categories() *CategoryRepository { return &CategoryRepository{db: db} }
func (db *DB) Stock() *StockRepository         { return &StockRepository{db: db} }

// injected must be called with mu held.
func (db *DB) injected(op string) error {
	if db.fault == nil {
		return nil
	}
	err := db.fault(op)
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Storage(op, err, false)
}
