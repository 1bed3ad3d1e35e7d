package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db"
	"github.com/posbill/billsync-backend/pkg/db/models"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/metrics"
)

// SequenceGenerator allocates gapless per-vendor invoice numbers.
type SequenceGenerator interface {
	Next(ctx context.Context, vendorID uuid.UUID) (invoiceNumber, billNumber string, err error)
	UpdateConfig(ctx context.Context, vendorID uuid.UUID, input SequenceConfigInput) (*models.BillSequence, error)
	Config(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error)
}

// SequenceConfigInput carries a numbering config mutation. Nil fields are
// left unchanged.
type SequenceConfigInput struct {
	Prefix         *string
	StartingNumber *int64
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sequenceGenerator struct {
	repo    Repository
	txr     txRunner
	cfg     config.SequenceConfig
	metrics *metrics.ServiceMetrics
	now     func() time.Time
}

// NewSequenceGenerator wires the invoice number allocator.
func NewSequenceGenerator(repo Repository, txr txRunner, cfg config.SequenceConfig, m *metrics.ServiceMetrics) (SequenceGenerator, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if txr == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if cfg.DefaultPrefix == "" {
		cfg.DefaultPrefix = "INV"
	}
	return &sequenceGenerator{
		repo:    repo,
		txr:     txr,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Next increments the vendor's counter inside a row-locked transaction.
// The row is taken FOR UPDATE NOWAIT; contention is retried with capped
// exponential backoff and surfaces SEQUENCE_BUSY once the budget runs out.
func (g *sequenceGenerator) Next(ctx context.Context, vendorID uuid.UUID) (string, string, error) {
	if vendorID == uuid.Nil {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}

	var invoiceNumber, billNumber string
	start := g.now()

	backoff := retry.WithCappedDuration(g.cfg.RetryCap,
		retry.WithMaxRetries(uint64(g.cfg.LockRetries), retry.NewExponential(g.cfg.RetryBase)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := g.txr.WithTx(ctx, func(tx *gorm.DB) error {
			repo := g.repo.WithTx(tx)

			seq, err := repo.FindSequenceForUpdate(ctx, vendorID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				seq = &models.BillSequence{
					VendorID:       vendorID,
					Prefix:         g.cfg.DefaultPrefix,
					StartingNumber: 1,
				}
				// A duplicate key here means a concurrent first issue
				// created the row; the retry below re-reads it under
				// the lock.
				if err := repo.CreateSequence(ctx, seq); err != nil {
					return err
				}
				// Re-read under the lock so concurrent first issues
				// serialize on the new row.
				seq, err = repo.FindSequenceForUpdate(ctx, vendorID)
				if err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			if seq.LastIssued == 0 {
				seq.LastIssued = seq.StartingNumber - 1
			}
			seq.LastIssued++
			if err := repo.SaveSequence(ctx, seq); err != nil {
				return err
			}

			invoiceNumber, billNumber = FormatNumbers(seq.Prefix, g.now(), seq.LastIssued)
			return nil
		})
		if db.IsLockNotAvailable(txErr) || db.IsUniqueViolation(txErr, "") {
			return retry.RetryableError(txErr)
		}
		return txErr
	})

	g.metrics.ObserveSequenceWait(g.now().Sub(start))

	if err != nil {
		if db.IsLockNotAvailable(err) || db.IsUniqueViolation(err, "") {
			g.metrics.IncSequenceBusy()
			return "", "", pkgerrors.Wrap(pkgerrors.CodeSequenceBusy, err, "bill sequence contended")
		}
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating bill number")
	}
	return invoiceNumber, billNumber, nil
}

// UpdateConfig mutates the numbering config. The prefix is always mutable;
// the starting number locks once the vendor has issued any bill.
func (g *sequenceGenerator) UpdateConfig(ctx context.Context, vendorID uuid.UUID, input SequenceConfigInput) (*models.BillSequence, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if input.StartingNumber != nil && *input.StartingNumber < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "starting_number must be at least 1")
	}

	var updated *models.BillSequence
	err := g.txr.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)

		seq, err := repo.FindSequenceForUpdate(ctx, vendorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = &models.BillSequence{
				VendorID:       vendorID,
				Prefix:         g.cfg.DefaultPrefix,
				StartingNumber: 1,
			}
			if err := repo.CreateSequence(ctx, seq); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if input.Prefix != nil {
			seq.Prefix = NormalizePrefix(*input.Prefix, g.cfg.DefaultPrefix)
		}

		if input.StartingNumber != nil && *input.StartingNumber != seq.StartingNumber {
			count, err := repo.CountBills(ctx, vendorID)
			if err != nil {
				return err
			}
			if count > 0 {
				return pkgerrors.New(pkgerrors.CodeConfigLocked, "starting number cannot change once bills exist").
					WithDetails(map[string]any{"bill_count": count})
			}
			// LastIssued is still zero here, so the next issue seeds
			// from the new start.
			seq.StartingNumber = *input.StartingNumber
		}

		if err := repo.SaveSequence(ctx, seq); err != nil {
			return err
		}
		updated = seq
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating numbering config")
	}
	return updated, nil
}

// Config returns the vendor's numbering config, materializing defaults for
// vendors that have never issued a bill.
func (g *sequenceGenerator) Config(ctx context.Context, vendorID uuid.UUID) (*models.BillSequence, error) {
	seq, err := g.repo.FindSequence(ctx, vendorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.BillSequence{
			VendorID:       vendorID,
			Prefix:         g.cfg.DefaultPrefix,
			StartingNumber: 1,
		}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading numbering config")
	}
	return seq, nil
}

// NormalizePrefix trims and uppercases a prefix, falling back to the
// provided default when the result is empty.
func NormalizePrefix(prefix, fallback string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(prefix))
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// FormatNumbers renders the invoice and bill numbers for a counter value:
// "{prefix}-{YYYY-MM-DD}-{n:04d}" and "{prefix}-{n:04d}".
func FormatNumbers(prefix string, date time.Time, n int64) (invoiceNumber, billNumber string) {
	invoiceNumber = fmt.Sprintf("%s-%s-%04d", prefix, date.Format("2006-01-02"), n)
	billNumber = fmt.Sprintf("%s-%04d", prefix, n)
	return invoiceNumber, billNumber
}
