// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/projectmdp/marketsync/internal/domain"
	"github.com/projectmdp/marketsync/internal/remote"
	"github.com/projectmdp/marketsync/internal/storage"
	"github.com/projectmdp/marketsync/internal/storage/models"
	"github.com/projectmdp/marketsync/internal/utils"
)

// TransactionRepository reconciles the remote transaction service with the
// local persistent cache. Reads are cache-first, writes go through the
// remote service and are written through to the cache on success, and every
// remote failure degrades to the cache before surfacing an error.
//
// Each public operation returns a cold, finite result stream: the producing
// goroutine emits in the documented order and closes the channel when the
// operation completes. Observers own their context; tearing it down
// abandons the stream.
type TransactionRepository struct {
	store  storage.Storage
	remote remote.Client
	logger *zap.Logger
}

// New creates a repository. The remote client is injected so tests can
// substitute a double.
func New(store storage.Storage, client remote.Client, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		store:  store,
		remote: client,
		logger: logger.Named("transaction_repository"),
	}
}

// CreateTransaction calls the remote create, writes the resulting record
// through to the cache and emits exactly one result bundling the
// transaction with the payment token and redirect URL.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, productID string, quantity int, totalPrice decimal.Decimal) <-chan Result[domain.CreateTransactionResult] {
	out := make(chan Result[domain.CreateTransactionResult])

	go func() {
		defer close(out)
		log := r.logger.With(
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
		)
		log.Debug("Creating transaction")

		emit := func(res Result[domain.CreateTransactionResult]) {
			utils.RecordOperation("create_transaction", res.Err)
			send(ctx, out, res)
		}

		resp, err := r.remote.CreateTransaction(ctx, remote.CreateTransactionRequest{
			ProductID:  productID,
			Quantity:   quantity,
			TotalPrice: totalPrice,
		})
		if err != nil {
			log.Error("Create transaction failed", zap.Error(err))
			emit(Fail[domain.CreateTransactionResult](err))
			return
		}
		if !resp.IsSuccess() {
			log.Error("Remote rejected create", zap.String("remote_error", resp.Error))
			emit(Fail[domain.CreateTransactionResult](domain.NewRemoteError(resp.Error, "Failed to create transaction")))
			return
		}
		if resp.Data == nil {
			emit(Fail[domain.CreateTransactionResult](&domain.NotFoundError{Message: "no transaction data received"}))
			return
		}

		tx, err := PayloadToTransaction(&resp.Data.Transaction)
		if err != nil {
			emit(Fail[domain.CreateTransactionResult](err))
			return
		}
		rec, err := PayloadToRecord(&resp.Data.Transaction)
		if err != nil {
			emit(Fail[domain.CreateTransactionResult](err))
			return
		}
		if err := r.store.UpsertTransaction(ctx, &rec); err != nil {
			emit(Fail[domain.CreateTransactionResult](err))
			return
		}

		log.Info("Transaction created", zap.String("transaction_id", tx.ID))
		emit(Ok(domain.CreateTransactionResult{
			Transaction: tx,
			SnapToken:   resp.Data.SnapToken,
			RedirectURL: resp.Data.RedirectURL,
		}))
	}()

	return out
}

// GetMyTransactions serves the caller's transaction list cache-first.
// Unless forceRefresh, a non-empty cache snapshot is emitted immediately as
// a freshness hint. The remote fetch then replaces the entire cache and
// emits the authoritative list; on remote failure the cache stands in, and
// an error is surfaced only when both sources are unavailable.
func (r *TransactionRepository) GetMyTransactions(ctx context.Context, forceRefresh bool) <-chan Result[[]domain.Transaction] {
	out := make(chan Result[[]domain.Transaction])

	go func() {
		defer close(out)
		log := r.logger.With(zap.Bool("force_refresh", forceRefresh))

		if !forceRefresh {
			cached, err := r.cachedTransactions(ctx)
			if err != nil {
				r.fallBackToCache(ctx, out, err)
				return
			}
			if len(cached) > 0 {
				log.Debug("Emitting cache snapshot", zap.Int("count", len(cached)))
				if !send(ctx, out, Ok(cached)) {
					return
				}
			}
		}

		resp, err := r.remote.MyTransactions(ctx)
		if err != nil {
			log.Warn("Remote fetch failed, falling back to cache", zap.Error(err))
			r.fallBackToCache(ctx, out, err)
			return
		}

		if resp.IsSuccess() {
			if resp.Data == nil {
				notFound := &domain.NotFoundError{Message: "No transactions received"}
				utils.RecordOperation("get_my_transactions", notFound)
				send(ctx, out, Fail[[]domain.Transaction](notFound))
				return
			}

			txs := make([]domain.Transaction, 0, len(resp.Data.Transactions))
			recs := make([]models.TransactionRecord, 0, len(resp.Data.Transactions))
			for i := range resp.Data.Transactions {
				p := &resp.Data.Transactions[i]
				tx, err := PayloadToTransaction(p)
				if err != nil {
					r.fallBackToCache(ctx, out, err)
					return
				}
				rec, err := PayloadToRecord(p)
				if err != nil {
					r.fallBackToCache(ctx, out, err)
					return
				}
				txs = append(txs, tx)
				recs = append(recs, rec)
			}

			// Full refresh: the remote list is authoritative, so the old
			// cache content is dropped wholesale rather than merged.
			if err := r.store.DeleteAllTransactions(ctx); err != nil {
				r.fallBackToCache(ctx, out, err)
				return
			}
			if err := r.store.InsertTransactions(ctx, recs); err != nil {
				r.fallBackToCache(ctx, out, err)
				return
			}

			log.Info("Cache refreshed from remote", zap.Int("count", len(txs)))
			utils.RecordOperation("get_my_transactions", nil)
			send(ctx, out, Ok(txs))
			return
		}

		// Remote reported failure: the cache takes precedence over the error.
		cached, err := r.cachedTransactions(ctx)
		if err != nil {
			r.fallBackToCache(ctx, out, err)
			return
		}
		if len(cached) > 0 {
			if forceRefresh {
				// Not emitted earlier, so the fallback emission happens now.
				utils.RecordOperation("get_my_transactions", nil)
				send(ctx, out, Ok(cached))
			}
			return
		}
		remoteErr := domain.NewRemoteError(resp.Error, "Failed to fetch transactions")
		utils.RecordOperation("get_my_transactions", remoteErr)
		send(ctx, out, Fail[[]domain.Transaction](remoteErr))
	}()

	return out
}

// fallBackToCache is the exception-path degradation of GetMyTransactions:
// serve the cache if it has anything, otherwise surface the original fault.
func (r *TransactionRepository) fallBackToCache(ctx context.Context, out chan<- Result[[]domain.Transaction], cause error) {
	cached, err := r.cachedTransactions(ctx)
	if err == nil && len(cached) > 0 {
		utils.RecordOperation("get_my_transactions", nil)
		send(ctx, out, Ok(cached))
		return
	}
	utils.RecordOperation("get_my_transactions", cause)
	send(ctx, out, Fail[[]domain.Transaction](cause))
}

// GetTransactionByID emits a cache hit first when present, then always
// attempts the remote fetch and emits its result, even when identical to
// the cache hit. On remote failure a surviving cache entry suppresses any
// further emission; the earlier cache emission stands as the final state.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, id string) <-chan Result[domain.Transaction] {
	out := make(chan Result[domain.Transaction])

	go func() {
		defer close(out)
		log := r.logger.With(zap.String("transaction_id", id))

		rec, err := r.store.GetTransaction(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			send(ctx, out, Fail[domain.Transaction](err))
			return
		}
		utils.RecordCacheRead(rec != nil)
		if rec != nil {
			tx, err := r.buildTransactionFromRecord(ctx, rec)
			if err != nil {
				send(ctx, out, Fail[domain.Transaction](err))
				return
			}
			if !send(ctx, out, Ok(tx)) {
				return
			}
		}

		resp, err := r.remote.TransactionByID(ctx, id)
		if err != nil {
			send(ctx, out, Fail[domain.Transaction](err))
			return
		}

		if resp.IsSuccess() {
			if resp.Data == nil {
				send(ctx, out, Fail[domain.Transaction](&domain.NotFoundError{Message: "Transaction not found"}))
				return
			}
			tx, err := PayloadToTransaction(&resp.Data.Transaction)
			if err != nil {
				send(ctx, out, Fail[domain.Transaction](err))
				return
			}
			newRec, err := PayloadToRecord(&resp.Data.Transaction)
			if err != nil {
				send(ctx, out, Fail[domain.Transaction](err))
				return
			}
			if err := r.store.UpsertTransaction(ctx, &newRec); err != nil {
				send(ctx, out, Fail[domain.Transaction](err))
				return
			}
			log.Debug("Cache updated from remote")
			send(ctx, out, Ok(tx))
			return
		}

		// Remote failed: a surviving cache entry means the earlier emission
		// already gave the caller its final state.
		survivor, err := r.store.GetTransaction(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			send(ctx, out, Fail[domain.Transaction](err))
			return
		}
		if survivor == nil {
			send(ctx, out, Fail[domain.Transaction](domain.NewRemoteError(resp.Error, "Transaction not found")))
		}
	}()

	return out
}

// GetTransactionWithDetails is the two-phase read returning the composite
// detail view. The cache phase resolves seller/product from the local
// stores by foreign key; the remote phase reuses the payload's embedded
// relations, which are authoritative and complete.
func (r *TransactionRepository) GetTransactionWithDetails(ctx context.Context, id string) <-chan Result[domain.TransactionDetails] {
	out := make(chan Result[domain.TransactionDetails])

	go func() {
		defer close(out)

		rec, err := r.store.GetTransaction(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			send(ctx, out, Fail[domain.TransactionDetails](err))
			return
		}
		utils.RecordCacheRead(rec != nil)
		if rec != nil {
			details, err := r.buildDetailsFromRecord(ctx, rec)
			if err != nil {
				send(ctx, out, Fail[domain.TransactionDetails](err))
				return
			}
			if !send(ctx, out, Ok(details)) {
				return
			}
		}

		resp, err := r.remote.TransactionByID(ctx, id)
		if err != nil {
			send(ctx, out, Fail[domain.TransactionDetails](err))
			return
		}

		if resp.IsSuccess() {
			if resp.Data == nil {
				send(ctx, out, Fail[domain.TransactionDetails](&domain.NotFoundError{Message: "Transaction not found"}))
				return
			}
			tx, err := PayloadToTransaction(&resp.Data.Transaction)
			if err != nil {
				send(ctx, out, Fail[domain.TransactionDetails](err))
				return
			}
			newRec, err := PayloadToRecord(&resp.Data.Transaction)
			if err != nil {
				send(ctx, out, Fail[domain.TransactionDetails](err))
				return
			}
			if err := r.store.UpsertTransaction(ctx, &newRec); err != nil {
				send(ctx, out, Fail[domain.TransactionDetails](err))
				return
			}
			seller := tx.Seller
			product := tx.Product
			send(ctx, out, Ok(domain.TransactionDetails{
				Transaction: tx,
				Seller:      &seller,
				Product:     &product,
			}))
			return
		}

		survivor, err := r.store.GetTransaction(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			send(ctx, out, Fail[domain.TransactionDetails](err))
			return
		}
		if survivor == nil {
			send(ctx, out, Fail[domain.TransactionDetails](domain.NewRemoteError(resp.Error, "Transaction not found")))
		}
	}()

	return out
}

// UpdateTransactionStatus performs the remote status update and patches
// only the status/description fields of the cached record. Exactly one
// emission.
func (r *TransactionRepository) UpdateTransactionStatus(ctx context.Context, id, status, description string) <-chan Result[domain.Transaction] {
	out := make(chan Result[domain.Transaction])

	go func() {
		defer close(out)
		log := r.logger.With(
			zap.String("transaction_id", id),
			zap.String("payment_status", status),
		)

		emit := func(res Result[domain.Transaction]) {
			utils.RecordOperation("update_transaction_status", res.Err)
			send(ctx, out, res)
		}

		resp, err := r.remote.UpdateTransactionStatus(ctx, id, remote.UpdateStatusRequest{
			PaymentStatus:      status,
			PaymentDescription: description,
		})
		if err != nil {
			log.Error("Status update failed", zap.Error(err))
			emit(Fail[domain.Transaction](err))
			return
		}
		if !resp.IsSuccess() {
			emit(Fail[domain.Transaction](domain.NewRemoteError(resp.Error, "Failed to update transaction")))
			return
		}
		if resp.Data == nil {
			emit(Fail[domain.Transaction](&domain.NotFoundError{Message: "Failed to update transaction"}))
			return
		}

		tx, err := PayloadToTransaction(&resp.Data.Transaction)
		if err != nil {
			emit(Fail[domain.Transaction](err))
			return
		}

		var desc *string
		if description != "" {
			desc = &description
		}
		if err := r.store.UpdatePaymentStatus(ctx, id, status, desc); err != nil {
			emit(Fail[domain.Transaction](err))
			return
		}

		log.Info("Transaction status updated")
		emit(Ok(tx))
	}()

	return out
}

// ---------------------------------------------------------------------------
// Local-only operations. No remote leg exists to retry against, so store
// faults propagate to the caller instead of being wrapped as results.
// ---------------------------------------------------------------------------

// BuyerTransactions is a continuous subscription to a buyer's transactions,
// re-resolving relations on every change notification.
func (r *TransactionRepository) BuyerTransactions(ctx context.Context, buyerEmail string) (<-chan []domain.Transaction, error) {
	recs, err := r.store.WatchBuyerTransactions(ctx, buyerEmail)
	if err != nil {
		return nil, err
	}
	return r.resolveStream(ctx, recs), nil
}

// SellerTransactions is the seller-side counterpart of BuyerTransactions.
func (r *TransactionRepository) SellerTransactions(ctx context.Context, sellerID string) (<-chan []domain.Transaction, error) {
	recs, err := r.store.WatchSellerTransactions(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return r.resolveStream(ctx, recs), nil
}

// TransactionsByPaymentStatus is a one-shot filtered cache read.
func (r *TransactionRepository) TransactionsByPaymentStatus(ctx context.Context, status string) ([]domain.Transaction, error) {
	recs, err := r.store.ListTransactionsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return r.buildTransactions(ctx, recs)
}

// BuyerTransactionCount reports how many cached transactions the buyer has.
func (r *TransactionRepository) BuyerTransactionCount(ctx context.Context, buyerEmail string) (int64, error) {
	return r.store.CountByBuyer(ctx, buyerEmail)
}

// SellerTransactionCount reports how many cached transactions the seller has.
func (r *TransactionRepository) SellerTransactionCount(ctx context.Context, sellerID string) (int64, error) {
	return r.store.CountBySeller(ctx, sellerID)
}

// BuyerTotalSpent sums the buyer's cached spending; zero when the store
// reports no rows.
func (r *TransactionRepository) BuyerTotalSpent(ctx context.Context, buyerEmail string) (decimal.Decimal, error) {
	return r.store.SumByBuyer(ctx, buyerEmail)
}

// SellerTotalEarned sums the seller's cached earnings; zero when the store
// reports no rows.
func (r *TransactionRepository) SellerTotalEarned(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	return r.store.SumBySeller(ctx, sellerID)
}

// ClearTransactionCache deletes all persisted records unconditionally.
func (r *TransactionRepository) ClearTransactionCache(ctx context.Context) error {
	r.logger.Info("Clearing transaction cache")
	return r.store.DeleteAllTransactions(ctx)
}

// ---------------------------------------------------------------------------
// Relation reconstruction
// ---------------------------------------------------------------------------

// buildTransactionFromRecord is the single choke point every cache-read
// path funnels through: it resolves seller and product by foreign key and
// substitutes the empty placeholder for a missing relation, so no nil
// relation ever reaches a caller. Store faults other than a miss propagate.
func (r *TransactionRepository) buildTransactionFromRecord(ctx context.Context, rec *models.TransactionRecord) (domain.Transaction, error) {
	tx := RecordToTransaction(rec)

	seller, err := r.store.GetUser(ctx, rec.UserSellerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.Transaction{}, err
	}
	if seller != nil {
		tx.Seller = userRecordToUser(seller)
	}

	product, err := r.store.GetProduct(ctx, rec.ProductID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.Transaction{}, err
	}
	if product != nil {
		tx.Product = productRecordToProduct(product)
	}

	return tx, nil
}

// buildDetailsFromRecord resolves the composite detail view from the cache.
// The composite's Seller/Product stay nil on a miss while the embedded
// transaction falls back to placeholders.
func (r *TransactionRepository) buildDetailsFromRecord(ctx context.Context, rec *models.TransactionRecord) (domain.TransactionDetails, error) {
	tx := RecordToTransaction(rec)

	var seller *domain.User
	sellerRec, err := r.store.GetUser(ctx, rec.UserSellerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.TransactionDetails{}, err
	}
	if sellerRec != nil {
		s := userRecordToUser(sellerRec)
		seller = &s
		tx.Seller = s
	}

	var product *domain.Product
	productRec, err := r.store.GetProduct(ctx, rec.ProductID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return domain.TransactionDetails{}, err
	}
	if productRec != nil {
		p := productRecordToProduct(productRec)
		product = &p
		tx.Product = p
	}

	return domain.TransactionDetails{
		Transaction: tx,
		Seller:      seller,
		Product:     product,
	}, nil
}

func (r *TransactionRepository) cachedTransactions(ctx context.Context) ([]domain.Transaction, error) {
	recs, err := r.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	utils.RecordCacheRead(len(recs) > 0)
	return r.buildTransactions(ctx, recs)
}

func (r *TransactionRepository) buildTransactions(ctx context.Context, recs []models.TransactionRecord) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(recs))
	for i := range recs {
		tx, err := r.buildTransactionFromRecord(ctx, &recs[i])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// resolveStream maps a record stream into a domain stream, re-resolving
// relations per notification. A failed resolution drops that notification;
// the next change triggers a fresh one.
func (r *TransactionRepository) resolveStream(ctx context.Context, in <-chan []models.TransactionRecord) <-chan []domain.Transaction {
	out := make(chan []domain.Transaction, 1)
	go func() {
		defer close(out)
		for recs := range in {
			txs, err := r.buildTransactions(ctx, recs)
			if err != nil {
				r.logger.Error("Failed to resolve relations for subscription", zap.Error(err))
				continue
			}
			select {
			case out <- txs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
