package transactions

import (
	"context"
	"errors"
	"testing"

	"github.com/glowdesk/glowdesk-backend/internal/allocator"
	"github.com/glowdesk/glowdesk-backend/internal/bookings"
	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	pkgerrors "github.com/glowdesk/glowdesk-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubTxRunner struct {
	err error
}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type stubRepo struct {
	created      []models.Transaction
	createdItems []models.TransactionItem
	byID         map[string]*models.Transaction

	createErr     error
	createItemErr error

	deletedIDs        []string
	deletedItemTxnIDs []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[string]*models.Transaction{}}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) CreateBatch(ctx context.Context, records []models.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, records...)
	return nil
}

func (r *stubRepo) CreateItemBatch(ctx context.Context, items []models.TransactionItem) error {
	if r.createItemErr != nil {
		return r.createItemErr
	}
	r.createdItems = append(r.createdItems, items...)
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	return r.byID[id], nil
}

func (r *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	return nil, nil
}

func (r *stubRepo) DeleteByID(ctx context.Context, id string) error {
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

func (r *stubRepo) DeleteItemsByTransactionID(ctx context.Context, txnID string) error {
	r.deletedItemTxnIDs = append(r.deletedItemTxnIDs, txnID)
	return nil
}

type stubBookingRepo struct {
	byID    map[string]*models.Booking
	updates map[string]*string
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{byID: map[string]*models.Booking{}, updates: map[string]*string{}}
}

func (r *stubBookingRepo) WithTx(tx *gorm.DB) bookings.Repository { return r }

func (r *stubBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.byID[id], nil
}

func (r *stubBookingRepo) List(ctx context.Context, filter bookings.ListFilter) ([]models.Booking, error) {
	return nil, nil
}

func (r *stubBookingRepo) UpdatePaymentStatus(ctx context.Context, id string, status *string) error {
	r.updates[id] = status
	return nil
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestService(t *testing.T, repo *stubRepo, bookingRepo *stubBookingRepo) Service {
	t.Helper()
	svc, err := NewService(stubTxRunner{}, repo, bookingRepo, nil, decimal.Zero)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCheckoutSingleRecordMarksBookingPaid(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	bookingRepo := newStubBookingRepo()
	svc := newTestService(t, repo, bookingRepo)

	bookingID := "bk-1"
	result, err := svc.Checkout(context.Background(), CheckoutInput{
		ID:           "txn-1",
		Method:       "Card",
		BookingID:    &bookingID,
		ServiceNames: []string{"Haircut"},
		Totals: allocator.Totals{
			Subtotal:  dec("100"),
			Tax:       dec("12"),
			Tip:       dec("18"),
			TotalPaid: dec("130"),
		},
		Items: []allocator.LineItem{
			{ID: "item-1", ServiceID: "svc-1", ServiceName: "Haircut", Price: dec("100"), StaffName: "Dana"},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.created))
	}
	row := repo.created[0]
	if row.ID != "txn-1" || row.Method != "card" || row.SortIndex != 1 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Status != "completed" {
		t.Fatalf("expected default status, got %q", row.Status)
	}
	if !row.TotalPaid.Equal(dec("130")) {
		t.Fatalf("unexpected total paid %s", row.TotalPaid)
	}

	if len(repo.createdItems) != 1 {
		t.Fatalf("expected 1 persisted item, got %d", len(repo.createdItems))
	}
	item := repo.createdItems[0]
	if item.TransactionID != "txn-1" || item.ServiceName != "Haircut" {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.StaffTipSplit.Equal(dec("18")) || !item.StaffTipCollected {
		t.Fatalf("expected tip attribution on staffed item, got %+v", item)
	}

	status, ok := bookingRepo.updates[bookingID]
	if !ok || status == nil || *status != "paid" {
		t.Fatalf("expected booking marked paid, got %v", status)
	}

	if len(result.SplitIDs) != 1 || result.SplitIDs[0] != "txn-1" {
		t.Fatalf("unexpected split ids %v", result.SplitIDs)
	}
}

func TestCheckoutPaymentSplitAttachesItemsToFirstRecord(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc := newTestService(t, repo, newStubBookingRepo())

	result, err := svc.Checkout(context.Background(), CheckoutInput{
		ID:     "txn-2",
		Method: "card",
		Totals: allocator.Totals{
			Subtotal:  dec("100"),
			Tax:       dec("12"),
			Tip:       dec("18"),
			TotalPaid: dec("130"),
		},
		Items: []allocator.LineItem{
			{ID: "item-1", ServiceName: "Color", Price: dec("100")},
		},
		IsSplitPayment: true,
		SplitPayments: []allocator.SplitPayment{
			{Method: "card", Amount: dec("80")},
			{Method: "cash", Amount: dec("50")},
		},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if len(repo.created) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(repo.created))
	}
	if repo.created[0].ID != "txn-2" || repo.created[1].ID != "txn-2-2" {
		t.Fatalf("unexpected ids %q, %q", repo.created[0].ID, repo.created[1].ID)
	}

	subtotalSum := repo.created[0].Subtotal.Add(repo.created[1].Subtotal)
	if !subtotalSum.Equal(dec("100")) {
		t.Fatalf("subtotal not conserved across rows: %s", subtotalSum)
	}

	for _, item := range repo.createdItems {
		if item.TransactionID != "txn-2" {
			t.Fatalf("items must attach to the first record, got %q", item.TransactionID)
		}
	}

	if len(result.SplitIDs) != 2 || result.SplitIDs[1] != "txn-2-2" {
		t.Fatalf("unexpected split ids %v", result.SplitIDs)
	}
}

func TestCheckoutRejectsBadSplitSumWithoutWrites(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	bookingRepo := newStubBookingRepo()
	svc := newTestService(t, repo, bookingRepo)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		ID:     "txn-3",
		Method: "card",
		Totals: allocator.Totals{
			Subtotal:  dec("100"),
			Tax:       dec("0"),
			Tip:       dec("0"),
			TotalPaid: dec("100"),
		},
		IsSplitPayment: true,
		SplitPayments: []allocator.SplitPayment{
			{Method: "card", Amount: dec("60")},
			{Method: "cash", Amount: dec("30")},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.created) != 0 || len(repo.createdItems) != 0 {
		t.Fatalf("no writes expected after validation failure")
	}
	if len(bookingRepo.updates) != 0 {
		t.Fatalf("booking must not be touched after validation failure")
	}
}

func TestCheckoutPersistenceFailureSurfacesDependencyError(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.createErr = errors.New("connection reset")
	svc := newTestService(t, repo, newStubBookingRepo())

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		ID:     "txn-4",
		Method: "card",
		Totals: allocator.Totals{
			Subtotal:  dec("10"),
			Tax:       dec("0"),
			Tip:       dec("0"),
			TotalPaid: dec("10"),
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeleteClearsPaidBooking(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	bookingRepo := newStubBookingRepo()

	bookingID := "bk-9"
	paid := "paid"
	repo.byID["txn-9"] = &models.Transaction{ID: "txn-9", BookingID: &bookingID}
	bookingRepo.byID[bookingID] = &models.Booking{ID: bookingID, PaymentStatus: &paid}

	svc := newTestService(t, repo, bookingRepo)
	if err := svc.Delete(context.Background(), "txn-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != "txn-9" {
		t.Fatalf("transaction not deleted: %v", repo.deletedIDs)
	}
	if len(repo.deletedItemTxnIDs) != 1 || repo.deletedItemTxnIDs[0] != "txn-9" {
		t.Fatalf("line items not deleted: %v", repo.deletedItemTxnIDs)
	}
	status, ok := bookingRepo.updates[bookingID]
	if !ok || status != nil {
		t.Fatalf("expected payment status cleared, got %v", status)
	}
}

func TestDeleteLeavesUnpaidBookingAlone(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	bookingRepo := newStubBookingRepo()

	bookingID := "bk-10"
	repo.byID["txn-10"] = &models.Transaction{ID: "txn-10", BookingID: &bookingID}
	bookingRepo.byID[bookingID] = &models.Booking{ID: bookingID}

	svc := newTestService(t, repo, bookingRepo)
	if err := svc.Delete(context.Background(), "txn-10"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(bookingRepo.updates) != 0 {
		t.Fatalf("unpaid booking should not be updated")
	}
}

func TestDeleteMissingTransactionReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(), newStubBookingRepo())
	err := svc.Delete(context.Background(), "missing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
