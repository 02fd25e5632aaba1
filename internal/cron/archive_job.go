package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/localbasket/localbasket-backend/internal/orders"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/enums"
	"github.com/localbasket/localbasket-backend/pkg/logger"
	"github.com/localbasket/localbasket-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderArchivedEvent is emitted when an order moves to history.
type OrderArchivedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ShopID     uuid.UUID `json:"shop_id"`
}

// ArchiveJobParams configure the order archival job.
type ArchiveJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Repo      orders.Repository
	Outbox    outboxEmitter
	Retention time.Duration
	BatchSize int
}

// NewArchiveJob builds the job that moves terminal orders to history once the
// retention window has passed.
func NewArchiveJob(params ArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &archiveJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repo,
		outbox:    params.Outbox,
		retention: params.Retention,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type archiveJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      orders.Repository
	outbox    outboxEmitter
	retention time.Duration
	batch     int
	now       func() time.Time
}

func (j *archiveJob) Name() string { return "order-archive" }

// Run archives one batch per cycle. Each order commits in its own
// transaction, so a failed row rolls back alone and the rest of the batch
// still lands; failures are aggregated into the returned error.
func (j *archiveJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	rows, err := j.repo.ListArchivable(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list archivable orders: %w", err)
	}

	var archived int
	var errs error
	for _, order := range rows {
		if err := j.archiveOne(ctx, order); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		archived++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"archived": archived,
		"cutoff":   cutoff,
	}), "order archive cycle complete")
	return errs
}

// archiveOne stamps and emits inside a single transaction so the archive mark
// and its event are atomic per order.
func (j *archiveJob) archiveOne(ctx context.Context, order models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		if err := repo.MarkArchived(ctx, order.ID, j.now()); err != nil {
			return fmt.Errorf("archive order %s: %w", order.ID, err)
		}
		err := j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderArchived,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderArchivedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				ShopID:     order.ShopID,
			},
		})
		if err != nil {
			return fmt.Errorf("emit archive event %s: %w", order.ID, err)
		}
		return nil
	})
}
