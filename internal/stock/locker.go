package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
)

// Locker serializes mutations of one product. Lock blocks until the key is
// free or ctx is done; the returned func releases it and is safe to call twice.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Publisher is notified after a movement has committed.
type Publisher interface {
	PublishMovement(ctx context.Context, product *model.Product, entry *model.StockHistory) error
}

func LockKey(productID string) string {
	return "lock:stock:" + productID
}
