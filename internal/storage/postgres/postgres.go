// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/projectmdp/marketsync/internal/events"
	"github.com/projectmdp/marketsync/internal/storage"
	"github.com/projectmdp/marketsync/internal/storage/models"
)

// postgresStorage implements the storage.Storage interface.
type postgresStorage struct {
	db       *gorm.DB
	logger   *zap.Logger
	notifier *events.Notifier
}

// NewStorage connects to the database and prepares the change notifier
// backing the subscription streams.
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:       db,
		logger:   zapLogger,
		notifier: events.NewNotifier(zapLogger, 4),
	}, nil
}

// RunMigrations creates the cache tables via GORM AutoMigrate. The
// seller/product tables are owned by other collaborators; migrating them
// here only guarantees the read paths have something to query against.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(214)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(214)")

	err = p.db.AutoMigrate(
		&models.TransactionRecord{},
		&models.UserRecord{},
		&models.ProductRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *postgresStorage) UpsertTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return err
	}
	p.notifier.Publish(events.NewChange(events.TransactionUpserted, rec.TransactionID))
	return nil
}

func (p *postgresStorage) InsertTransactions(ctx context.Context, recs []models.TransactionRecord) error {
	if len(recs) == 0 {
		p.notifier.Publish(events.NewChange(events.TransactionsReplaced, ""))
		return nil
	}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			UpdateAll: true,
		}).
		Create(&recs).Error
	if err != nil {
		return err
	}
	p.notifier.Publish(events.NewChange(events.TransactionsReplaced, ""))
	return nil
}

func (p *postgresStorage) GetTransaction(ctx context.Context, id string) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := p.db.WithContext(ctx).Where("transaction_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *postgresStorage) ListTransactions(ctx context.Context) ([]models.TransactionRecord, error) {
	var recs []models.TransactionRecord
	err := p.db.WithContext(ctx).
		Order("last_updated desc").
		Find(&recs).Error
	return recs, err
}

func (p *postgresStorage) ListTransactionsByStatus(ctx context.Context, status string) ([]models.TransactionRecord, error) {
	var recs []models.TransactionRecord
	err := p.db.WithContext(ctx).
		Where("payment_status = ?", status).
		Order("last_updated desc").
		Find(&recs).Error
	return recs, err
}

func (p *postgresStorage) UpdatePaymentStatus(ctx context.Context, id, status string, description *string) error {
	err := p.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where("transaction_id = ?", id).
		Updates(map[string]interface{}{
			"payment_status":      status,
			"payment_description": description,
			"last_updated":        time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	p.notifier.Publish(events.NewChange(events.StatusUpdated, id))
	return nil
}

func (p *postgresStorage) DeleteAllTransactions(ctx context.Context) error {
	err := p.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.TransactionRecord{}).Error
	if err != nil {
		return err
	}
	p.notifier.Publish(events.NewChange(events.CacheCleared, ""))
	return nil
}

func (p *postgresStorage) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	var rec models.UserRecord
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *postgresStorage) GetProduct(ctx context.Context, id string) (*models.ProductRecord, error) {
	var rec models.ProductRecord
	err := p.db.WithContext(ctx).Where("product_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *postgresStorage) CountByBuyer(ctx context.Context, buyerEmail string) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where("email_buyer = ?", buyerEmail).
		Count(&n).Error
	return n, err
}

func (p *postgresStorage) CountBySeller(ctx context.Context, sellerID string) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where("user_seller_id = ?", sellerID).
		Count(&n).Error
	return n, err
}

func (p *postgresStorage) SumByBuyer(ctx context.Context, buyerEmail string) (decimal.Decimal, error) {
	return p.sumTotalPrice(ctx, "email_buyer = ?", buyerEmail)
}

func (p *postgresStorage) SumBySeller(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	return p.sumTotalPrice(ctx, "user_seller_id = ?", sellerID)
}

// sumTotalPrice reports zero, not an error, when no rows match.
func (p *postgresStorage) sumTotalPrice(ctx context.Context, cond string, arg string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := p.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Where(cond, arg).
		Select("SUM(total_price)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (p *postgresStorage) WatchBuyerTransactions(ctx context.Context, buyerEmail string) (<-chan []models.TransactionRecord, error) {
	return p.watch(ctx, func(ctx context.Context) ([]models.TransactionRecord, error) {
		var recs []models.TransactionRecord
		err := p.db.WithContext(ctx).
			Where("email_buyer = ?", buyerEmail).
			Order("last_updated desc").
			Find(&recs).Error
		return recs, err
	})
}

func (p *postgresStorage) WatchSellerTransactions(ctx context.Context, sellerID string) (<-chan []models.TransactionRecord, error) {
	return p.watch(ctx, func(ctx context.Context) ([]models.TransactionRecord, error) {
		var recs []models.TransactionRecord
		err := p.db.WithContext(ctx).
			Where("user_seller_id = ?", sellerID).
			Order("last_updated desc").
			Find(&recs).Error
		return recs, err
	})
}

// watch emits the current query result, then re-runs the query after every
// cache mutation. The stream closes when ctx is done or the store closes.
func (p *postgresStorage) watch(ctx context.Context, query func(context.Context) ([]models.TransactionRecord, error)) (<-chan []models.TransactionRecord, error) {
	initial, err := query(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []models.TransactionRecord, 1)
	sub := p.notifier.Subscribe()

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
				recs, err := query(ctx)
				if err != nil {
					p.logger.Error("Subscription re-query failed", zap.Error(err))
					continue
				}
				select {
				case out <- recs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the database connection and closes all subscriptions.
func (p *postgresStorage) Close() error {
	p.notifier.Close()
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
