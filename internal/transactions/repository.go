package transactions

import (
	"context"
	"errors"

	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

// ListFilter narrows transaction listings.
type ListFilter struct {
	BookingID  string
	CustomerID string
	Limit      int
	Offset     int
}

// Repository manages persistence for transaction records and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, records []models.Transaction) error
	CreateItemBatch(ctx context.Context, items []models.TransactionItem) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.Transaction, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteItemsByTransactionID(ctx context.Context, txnID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, records []models.Transaction) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Items").Create(&records).Error
}

func (r *repository) CreateItemBatch(ctx context.Context, items []models.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var record models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.BookingID != "" {
		query = query.Where("booking_id = ?", filter.BookingID)
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var records []models.Transaction
	if err := query.
		Order("created_at DESC, sort_index ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Transaction{}).Error
}

func (r *repository) DeleteItemsByTransactionID(ctx context.Context, txnID string) error {
	return r.db.WithContext(ctx).
		Where("transaction_id = ?", txnID).
		Delete(&models.TransactionItem{}).Error
}
