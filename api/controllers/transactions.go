package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/glowdesk/glowdesk-backend/api/responses"
	"github.com/glowdesk/glowdesk-backend/api/validators"
	"github.com/glowdesk/glowdesk-backend/internal/allocator"
	"github.com/glowdesk/glowdesk-backend/internal/transactions"
	"github.com/glowdesk/glowdesk-backend/pkg/db/models"
	pkgerrors "github.com/glowdesk/glowdesk-backend/pkg/errors"
	"github.com/glowdesk/glowdesk-backend/pkg/logger"
)

// Checkout persists a walk-in sale, splitting it into one record per
// payment slice or service group when the register requests it.
func Checkout(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithTransactionID(ctx, payload.Transaction.ID)
		}

		result, err := svc.Checkout(ctx, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OK:     true,
			ID:     payload.Transaction.ID,
			Splits: result.SplitIDs,
		})
	}
}

// TransactionList returns transaction records, newest sale first.
func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := transactions.ListFilter{
			BookingID:  r.URL.Query().Get("bookingId"),
			CustomerID: r.URL.Query().Get("customerId"),
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
				return
			}
			filter.Limit = limit
		}
		if raw := r.URL.Query().Get("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offset must be a non-negative integer"))
				return
			}
			filter.Offset = offset
		}

		records, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]transactionResponse, 0, len(records))
		for _, record := range records {
			out = append(out, newTransactionResponse(record))
		}
		responses.WriteSuccess(w, out)
	}
}

// TransactionDetail returns one transaction record with its line items.
func TransactionDetail(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "transactionId")
		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionResponse(*record))
	}
}

// TransactionDelete removes a transaction record and reverses the linked
// booking's paid status when it was the paying record.
func TransactionDelete(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "transactionId")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithTransactionID(ctx, id)
		}
		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"ok": true, "id": id})
	}
}

type checkoutRequest struct {
	Transaction checkoutTransaction `json:"transaction" validate:"required"`
	Items       []checkoutItem      `json:"items" validate:"dive"`
}

type checkoutTransaction struct {
	ID           string   `json:"id" validate:"required"`
	Method       string   `json:"method" validate:"required"`
	Status       string   `json:"status" validate:"omitempty,oneof=completed pending refunded"`
	BookingID    *string  `json:"bookingId,omitempty"`
	CustomerID   *string  `json:"customerId,omitempty"`
	StaffName    *string  `json:"staffName,omitempty"`
	ServiceNames []string `json:"serviceNames,omitempty"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Tip       decimal.Decimal `json:"tip"`
	TotalPaid decimal.Decimal `json:"totalPaid"`

	IsSplitPayment bool                  `json:"isSplitPayment"`
	SplitPayments  []checkoutSplit       `json:"splitPayments,omitempty" validate:"dive"`
	IsServiceSplit bool                  `json:"isServiceSplit"`
	ServiceSplits  []checkoutServiceRule `json:"serviceSplits,omitempty" validate:"dive"`
}

type checkoutSplit struct {
	Method     string           `json:"method" validate:"required"`
	Amount     decimal.Decimal  `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type checkoutServiceRule struct {
	ServiceID     string `json:"serviceId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

type checkoutItem struct {
	ID          string          `json:"id,omitempty"`
	ServiceID   string          `json:"serviceId,omitempty"`
	ServiceName string          `json:"serviceName" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	StaffName   string          `json:"staffName,omitempty"`
}

func (req checkoutRequest) toInput() transactions.CheckoutInput {
	items := make([]allocator.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, allocator.LineItem{
			ID:          item.ID,
			ServiceID:   item.ServiceID,
			ServiceName: item.ServiceName,
			Price:       item.Price,
			StaffName:   item.StaffName,
		})
	}

	splits := make([]allocator.SplitPayment, 0, len(req.Transaction.SplitPayments))
	for _, split := range req.Transaction.SplitPayments {
		splits = append(splits, allocator.SplitPayment{
			Method:     split.Method,
			Amount:     split.Amount,
			Percentage: split.Percentage,
		})
	}

	rules := make([]allocator.ServiceSplit, 0, len(req.Transaction.ServiceSplits))
	for _, rule := range req.Transaction.ServiceSplits {
		rules = append(rules, allocator.ServiceSplit{
			ServiceID:     rule.ServiceID,
			PaymentMethod: rule.PaymentMethod,
		})
	}

	return transactions.CheckoutInput{
		ID:           req.Transaction.ID,
		Method:       req.Transaction.Method,
		Status:       req.Transaction.Status,
		BookingID:    req.Transaction.BookingID,
		CustomerID:   req.Transaction.CustomerID,
		StaffName:    req.Transaction.StaffName,
		ServiceNames: req.Transaction.ServiceNames,
		Totals: allocator.Totals{
			Subtotal:  req.Transaction.Subtotal,
			Tax:       req.Transaction.Tax,
			Tip:       req.Transaction.Tip,
			TotalPaid: req.Transaction.TotalPaid,
		},
		Items:          items,
		IsSplitPayment: req.Transaction.IsSplitPayment,
		SplitPayments:  splits,
		IsServiceSplit: req.Transaction.IsServiceSplit,
		ServiceSplits:  rules,
	}
}

type checkoutResponse struct {
	OK     bool     `json:"ok"`
	ID     string   `json:"id"`
	Splits []string `json:"splits"`
}

type transactionResponse struct {
	ID           string          `json:"id"`
	BookingID    *string         `json:"bookingId,omitempty"`
	CustomerID   *string         `json:"customerId,omitempty"`
	StaffName    *string         `json:"staffName,omitempty"`
	Method       string          `json:"method"`
	Status       string          `json:"status"`
	SortIndex    int             `json:"sortIndex"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Tip          decimal.Decimal `json:"tip"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	ServiceNames []string        `json:"serviceNames,omitempty"`
	Items        []itemResponse  `json:"items,omitempty"`
	CreatedAt    string          `json:"createdAt"`
}

type itemResponse struct {
	ID                string          `json:"id"`
	ServiceID         *string         `json:"serviceId,omitempty"`
	ServiceName       string          `json:"serviceName"`
	Price             decimal.Decimal `json:"price"`
	StaffName         *string         `json:"staffName,omitempty"`
	StaffTipSplit     decimal.Decimal `json:"staffTipSplit"`
	StaffTipCollected bool            `json:"staffTipCollected"`
}

func newTransactionResponse(record models.Transaction) transactionResponse {
	items := make([]itemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, itemResponse{
			ID:                item.ID,
			ServiceID:         item.ServiceID,
			ServiceName:       item.ServiceName,
			Price:             item.Price,
			StaffName:         item.StaffName,
			StaffTipSplit:     item.StaffTipSplit,
			StaffTipCollected: item.StaffTipCollected,
		})
	}
	return transactionResponse{
		ID:           record.ID,
		BookingID:    record.BookingID,
		CustomerID:   record.CustomerID,
		StaffName:    record.StaffName,
		Method:       record.Method,
		Status:       record.Status,
		SortIndex:    record.SortIndex,
		Subtotal:     record.Subtotal,
		Tax:          record.Tax,
		Tip:          record.Tip,
		TotalPaid:    record.TotalPaid,
		ServiceNames: record.ServiceNames,
		Items:        items,
		CreatedAt:    record.CreatedAt.UTC().Format(time.RFC3339),
	}
}
