package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwell/coauthor/internal/adapter/phonepe"
	"github.com/inkwell/coauthor/internal/domain/model"
)

// StoreFacade exposes the subset of application functionality required by the worker.
type StoreFacade interface {
	StalePurchases(ctx context.Context, limit int) ([]model.Purchase, error)
	CheckPayment(ctx context.Context, transactionID string) (*model.PaymentResult, error)
	SettlePayment(ctx context.Context, result *model.PaymentResult) (*model.Purchase, bool, error)
	AbandonPurchase(ctx context.Context, transactionID string) error
}

// Reconciler sweeps pending purchases whose callback never arrived and
// resolves them against the provider status API concurrently.
type Reconciler struct {
	facade       StoreFacade
	pollInterval time.Duration
	abandonAfter time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Purchase
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewReconciler constructs the reconciliation worker pool.
func NewReconciler(facade StoreFacade, pollInterval, abandonAfter time.Duration, batchSize, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Reconciler{
		facade:       facade,
		pollInterval: pollInterval,
		abandonAfter: abandonAfter,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Purchase, batchSize*workers),
	}
}

// Start launches background processing.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context) {
	purchases, err := r.facade.StalePurchases(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch stale purchases failed", slog.String("error", err.Error()))
		return
	}
	for _, purchase := range purchases {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- purchase:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case purchase, ok := <-r.jobs:
			if !ok {
				return
			}
			r.handlePurchase(ctx, purchase)
		}
	}
}

func (r *Reconciler) handlePurchase(ctx context.Context, purchase model.Purchase) {
	result, err := r.facade.CheckPayment(ctx, purchase.TransactionID)
	if err != nil {
		if errors.Is(err, phonepe.ErrTransactionUnknown) {
			// The provider never saw this transaction. Keep waiting until
			// the abandon horizon, then release the reservation.
			r.abandonIfExpired(ctx, purchase)
			return
		}
		r.logger.Error("payment status fetch failed",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("error", err.Error()),
		)
		return
	}

	if result.State == model.PaymentStatePending {
		r.abandonIfExpired(ctx, purchase)
		return
	}

	if _, applied, err := r.facade.SettlePayment(ctx, result); err != nil {
		r.logger.Error("settle reconciled payment failed",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("error", err.Error()),
		)
	} else if applied {
		r.logger.Info("purchase reconciled",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("state", string(result.State)),
		)
	}
}

func (r *Reconciler) abandonIfExpired(ctx context.Context, purchase model.Purchase) {
	if time.Since(purchase.CreatedAt) < r.abandonAfter {
		return
	}
	if err := r.facade.AbandonPurchase(ctx, purchase.TransactionID); err != nil {
		r.logger.Error("abandon stale purchase failed",
			slog.String("transaction_id", purchase.TransactionID),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("stale purchase abandoned", slog.String("transaction_id", purchase.TransactionID))
}
