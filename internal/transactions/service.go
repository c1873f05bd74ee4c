package transactions

import (
	"context"
	"fmt"
	"time"

	"github.com/glowdesk/glowdesk-backend/internal/allocator"
	"github.com/glowdesk/glowdesk-backend/internal/bookings"
	"github.com/glowdesk/glowdesk-backend/pkg/db"
	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	pkgerrors "github.com/glowdesk/glowdesk-backend/pkg/errors"
	"github.com/glowdesk/glowdesk-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StrategyNone         = "none"
	StrategyPaymentSplit = "payment_split"
	StrategyServiceSplit = "service_split"

	paymentStatusPaid = "paid"
	defaultTxnStatus  = "completed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes walk-in checkout and transaction administration.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// CheckoutInput is one logical sale ready for allocation and persistence.
type CheckoutInput struct {
	ID           string
	Method       string
	Status       string
	BookingID    *string
	CustomerID   *string
	StaffName    *string
	ServiceNames []string

	Totals allocator.Totals
	Items  []allocator.LineItem

	IsSplitPayment bool
	SplitPayments  []allocator.SplitPayment

	IsServiceSplit bool
	ServiceSplits  []allocator.ServiceSplit
}

// CheckoutResult reports the persisted records in split order.
type CheckoutResult struct {
	Records  []models.Transaction
	SplitIDs []string
}

type service struct {
	tx          txRunner
	repo        Repository
	bookingRepo bookings.Repository
	metrics     *metrics.CheckoutMetrics
	tolerance   decimal.Decimal
}

// NewService wires the transactions service.
func NewService(
	tx txRunner,
	repo Repository,
	bookingRepo bookings.Repository,
	checkoutMetrics *metrics.CheckoutMetrics,
	splitTolerance decimal.Decimal,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if bookingRepo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		bookingRepo: bookingRepo,
		metrics:     checkoutMetrics,
		tolerance:   splitTolerance,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	sale := allocator.Sale{
		OriginalID:     input.ID,
		Method:         input.Method,
		Totals:         input.Totals,
		Items:          input.Items,
		IsSplitPayment: input.IsSplitPayment,
		SplitPayments:  input.SplitPayments,
		IsServiceSplit: input.IsServiceSplit,
		ServiceSplits:  input.ServiceSplits,
	}

	records, err := allocator.Allocate(sale, allocator.Options{SplitTolerance: s.tolerance})
	if err != nil {
		s.metrics.IncFailure("validation")
		return nil, err
	}

	strategy := strategyFor(input)
	rows, items := buildRows(input, records)

	start := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateBatch(ctx, rows); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction id already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transaction batch")
		}
		if err := repo.CreateItemBatch(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist line item batch")
		}
		if input.BookingID != nil && *input.BookingID != "" {
			paid := paymentStatusPaid
			if err := s.bookingRepo.WithTx(tx).UpdatePaymentStatus(ctx, *input.BookingID, &paid); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark booking paid")
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.IncFailure("persistence")
		return nil, err
	}

	s.metrics.ObserveDuration(strategy, time.Since(start))
	s.metrics.IncCheckout(strategy)
	s.metrics.AddRecords(len(rows))

	splitIDs := make([]string, len(rows))
	for i, row := range rows {
		splitIDs[i] = row.ID
	}
	return &CheckoutResult{Records: rows, SplitIDs: splitIDs}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return record, nil
}

// Delete removes a transaction record together with its line items. When the
// record references a booking currently marked paid, the booking's payment
// status is cleared in the same database transaction.
func (s *service) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	reversed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItemsByTransactionID(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete line items")
		}
		if err := repo.DeleteByID(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete transaction")
		}

		if record.BookingID == nil || *record.BookingID == "" {
			return nil
		}
		bookingRepo := s.bookingRepo.WithTx(tx)
		booking, err := bookingRepo.FindByID(ctx, *record.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking == nil || booking.PaymentStatus == nil || *booking.PaymentStatus != paymentStatusPaid {
			return nil
		}
		if err := bookingRepo.UpdatePaymentStatus(ctx, booking.ID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear booking payment status")
		}
		reversed = true
		return nil
	})
	if err != nil {
		return err
	}
	if reversed {
		s.metrics.IncReversal()
	}
	return nil
}

func strategyFor(input CheckoutInput) string {
	switch {
	case input.IsSplitPayment && len(input.SplitPayments) >= 2:
		return StrategyPaymentSplit
	case input.IsServiceSplit && len(input.ServiceSplits) >= 1:
		return StrategyServiceSplit
	default:
		return StrategyNone
	}
}

func buildRows(input CheckoutInput, records []allocator.Record) ([]models.Transaction, []models.TransactionItem) {
	rows := make([]models.Transaction, 0, len(records))
	items := make([]models.TransactionItem, 0, len(input.Items))
	status := input.Status
	if status == "" {
		status = defaultTxnStatus
	}

	for _, record := range records {
		rows = append(rows, models.Transaction{
			ID:           record.ID,
			BookingID:    input.BookingID,
			CustomerID:   input.CustomerID,
			StaffName:    input.StaffName,
			Method:       record.Method,
			Status:       status,
			SortIndex:    record.SortIndex,
			Subtotal:     record.Totals.Subtotal,
			Tax:          record.Totals.Tax,
			Tip:          record.Totals.Tip,
			TotalPaid:    record.Totals.TotalPaid,
			ServiceNames: input.ServiceNames,
		})

		for _, item := range record.Items {
			itemID := item.ID
			if itemID == "" {
				itemID = uuid.NewString()
			}
			var serviceID *string
			if item.ServiceID != "" {
				sid := item.ServiceID
				serviceID = &sid
			}
			var staffName *string
			if item.StaffName != "" {
				name := item.StaffName
				staffName = &name
			}
			items = append(items, models.TransactionItem{
				ID:                itemID,
				TransactionID:     record.ID,
				ServiceID:         serviceID,
				ServiceName:       item.ServiceName,
				Price:             item.Price,
				StaffName:         staffName,
				StaffTipSplit:     item.StaffTipSplit,
				StaffTipCollected: item.StaffTipCollected,
			})
		}
	}
	return rows, items
}
