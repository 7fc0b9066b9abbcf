package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type Options struct {
	LockWait       time.Duration
	StorageRetries int
	RetryBackoff   time.Duration
	Now            func() time.Time
}

type stockUseCase struct {
	repo      stock.Repository
	locker    stock.Locker
	publisher stock.Publisher
	logger    logger.ZapLogger
	opts      Options
}

func NewStockUseCase(repo stock.Repository, locker stock.Locker, publisher stock.Publisher, log logger.ZapLogger, opts Options) stock.UseCase {
	if opts.LockWait <= 0 {
		opts.LockWait = 5 * time.Second
	}
	if opts.StorageRetries < 0 {
		opts.StorageRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &stockUseCase{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		logger:    log,
		opts:      opts,
	}
}

func (uc *stockUseCase) ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.Product, *model.StockHistory, error) {
	if err := stock.ValidateMovement(input.Type, input.Magnitude); err != nil {
		return nil, nil, err
	}
	if input.ActorID == "" {
		return nil, nil, apperror.ErrMissingActor
	}

	move := func(cur model.Product) (*model.StockHistory, error) {
		next, err := stock.NextQuantity(cur.Quantity, input.Type, input.Magnitude)
		if err != nil {
			return nil, err
		}
		return uc.newEntry(cur, input.Type, input.Magnitude, next, input.Note, input.ActorID), nil
	}
	p, h, err := uc.mutate(ctx, input.ProductID, func() (*model.Product, *model.StockHistory, error) {
		return uc.repo.ApplyMovement(ctx, input.ProductID, move)
	})
	if err != nil {
		uc.logFailure("stock movement rejected", input.ProductID, err,
			zap.String("type", string(input.Type)), zap.Int64("quantity", input.Magnitude))
		return nil, nil, err
	}

	uc.logger.Info("stock movement applied",
		zap.String("product_id", p.ID),
		zap.String("type", string(h.Type)),
		zap.Int64("previous_quantity", h.PreviousQuantity),
		zap.Int64("new_quantity", h.NewQuantity),
		zap.String("performed_by", h.PerformedBy),
	)
	uc.publish(ctx, p, h)
	return p, h, nil
}

func (uc *stockUseCase) EditProductQuantity(ctx context.Context, productID string, newQuantity int64, actorID, note string) (*model.Product, *model.StockHistory, error) {
	if err := validateEdit(newQuantity, actorID); err != nil {
		return nil, nil, err
	}

	p, h, err := uc.mutate(ctx, productID, func() (*model.Product, *model.StockHistory, error) {
		return uc.repo.ApplyMovement(ctx, productID, uc.adjustTo(newQuantity, note, actorID))
	})
	if err != nil {
		uc.logFailure("product quantity edit rejected", productID, err)
		return nil, nil, err
	}
	if h != nil {
		uc.publish(ctx, p, h)
	}
	return p, h, nil
}

func (uc *stockUseCase) EditProduct(ctx context.Context, p *model.Product, newQuantity int64, actorID, note string) (*model.Product, *model.StockHistory, error) {
	if err := validateEdit(newQuantity, actorID); err != nil {
		return nil, nil, err
	}

	updated, h, err := uc.mutate(ctx, p.ID, func() (*model.Product, *model.StockHistory, error) {
		return uc.repo.UpdateProduct(ctx, p, uc.adjustTo(newQuantity, note, actorID))
	})
	if err != nil {
		uc.logFailure("product edit rejected", p.ID, err)
		return nil, nil, err
	}
	if h != nil {
		uc.publish(ctx, updated, h)
	}
	return updated, h, nil
}

func validateEdit(newQuantity int64, actorID string) error {
	if err := stock.ValidateMovement(model.MovementAdjustment, newQuantity); err != nil {
		return err
	}
	if actorID == "" {
		return apperror.ErrMissingActor
	}
	return nil
}

// adjustTo sets the quantity to target. Setting the current value again is
// not a movement.
func (uc *stockUseCase) adjustTo(target int64, note, actorID string) stock.MutateFunc {
	return func(cur model.Product) (*model.StockHistory, error) {
		if cur.Quantity == target {
			return nil, nil
		}
		return uc.newEntry(cur, model.MovementAdjustment, target, target, note, actorID), nil
	}
}

func (uc *stockUseCase) QueryHistory(ctx context.Context, filters *dto.HistoryFilters) (*dto.HistoryPage, error) {
	f := *filters
	f.Normalize()
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperror.ErrInvalidMovementType
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, apperror.ErrInvalidInput
	}

	entries, total, err := uc.repo.ListHistory(ctx, &f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.StockHistory{}
	}

	return &dto.HistoryPage{
		Entries:  entries,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
		Pages:    (total + f.PageSize - 1) / f.PageSize,
	}, nil
}

func (uc *stockUseCase) Reconcile(ctx context.Context, productID string) (*dto.Reconciliation, error) {
	unlock, err := uc.lock(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Writers hold the same lock, so the row and its history agree.
	p, err := uc.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	entries, err := uc.repo.ListProductHistory(ctx, productID)
	if err != nil {
		return nil, err
	}

	rec := &dto.Reconciliation{
		ProductID:       p.ID,
		InitialQuantity: p.InitialQuantity,
		Actual:          p.Quantity,
		Entries:         len(entries),
		FirstBreak:      -1,
	}
	running := p.InitialQuantity
	for i := range entries {
		if entries[i].PreviousQuantity != running && rec.FirstBreak < 0 {
			rec.FirstBreak = i
		}
		rec.SumOfDeltas += entries[i].Delta()
		running = entries[i].NewQuantity
	}
	rec.Expected = rec.InitialQuantity + rec.SumOfDeltas
	rec.Consistent = rec.FirstBreak < 0 && rec.Expected == rec.Actual

	if !rec.Consistent {
		uc.logger.Error("stock ledger does not reconcile",
			zap.String("product_id", productID),
			zap.Int64("expected", rec.Expected),
			zap.Int64("actual", rec.Actual),
			zap.Int("first_break", rec.FirstBreak),
		)
	}
	return rec, nil
}

// mutate runs apply under the product lock, retrying only storage failures
// that are known not to have committed.
func (uc *stockUseCase) mutate(ctx context.Context, productID string, apply func() (*model.Product, *model.StockHistory, error)) (*model.Product, *model.StockHistory, error) {
	unlock, err := uc.lock(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		p, h, err := apply()
		if err == nil || !apperror.IsRetryable(err) || attempt >= uc.opts.StorageRetries {
			return p, h, err
		}

		uc.logger.Warn("retrying stock movement after transient storage failure",
			zap.String("product_id", productID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		timer := time.NewTimer(uc.opts.RetryBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, apperror.Storage("wait for retry", ctx.Err(), false)
		case <-timer.C:
		}
	}
}

func (uc *stockUseCase) lock(ctx context.Context, productID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.opts.LockWait)
	defer cancel()

	unlock, err := uc.locker.Lock(lockCtx, stock.LockKey(productID))
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrLockTimeout, err)
	}
	return unlock, nil
}

func (uc *stockUseCase) newEntry(cur model.Product, t model.MovementType, magnitude, next int64, note, actorID string) *model.StockHistory {
	return &model.StockHistory{
		ID:               uuid.New().String(),
		ProductID:        cur.ID,
		Type:             t,
		Quantity:         magnitude,
		PreviousQuantity: cur.Quantity,
		NewQuantity:      next,
		Note:             note,
		PerformedBy:      actorID,
		CreatedAt:        uc.opts.Now().UTC(),
	}
}

func (uc *stockUseCase) publish(ctx context.Context, p *model.Product, h *model.StockHistory) {
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishMovement(pctx, p, h); err != nil {
		uc.logger.Warn("failed to publish stock movement",
			zap.String("product_id", p.ID),
			zap.String("history_id", h.ID),
			zap.Error(err),
		)
	}
}

func (uc *stockUseCase) logFailure(msg, productID string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("product_id", productID), zap.Error(err))
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind != apperror.KindStorageFailure {
		uc.logger.Debug(msg, fields...)
		return
	}
	uc.logger.Error(msg, fields...)
}
