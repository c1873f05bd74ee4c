// Package allocator computes how one sale's totals partition across the
// transaction records persisted for it. It is pure: no I/O, no shared
// state, safe for concurrent use.
package allocator

import (
	"fmt"
	"strings"

	pkgerrors "github.com/glowdesk/glowdesk-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultSplitTolerance bounds the drift allowed between the sum of split
// payment amounts and the sale total. Small rounding slack only; anything
// beyond it is a client bug.
var DefaultSplitTolerance = decimal.NewFromFloat(0.05)

const fallbackMethod = "other"

// LineItem is one purchased service or product within a sale.
// StaffTipSplit and StaffTipCollected are populated by Allocate, not by
// callers.
type LineItem struct {
	ID          string
	ServiceID   string
	ServiceName string
	Price       decimal.Decimal
	StaffName   string

	StaffTipSplit     decimal.Decimal
	StaffTipCollected bool
}

// SplitPayment describes one slice of a sale paid across several payment
// instruments. Percentage is display metadata from the register UI and does
// not participate in allocation.
type SplitPayment struct {
	Method     string
	Amount     decimal.Decimal
	Percentage *decimal.Decimal
}

// ServiceSplit maps one service line to the payment method settling it.
type ServiceSplit struct {
	ServiceID     string
	PaymentMethod string
}

// Sale is the allocator input: one logical sale with its authoritative
// totals and an optional split specification.
type Sale struct {
	OriginalID string
	Method     string
	Totals     Totals
	Items      []LineItem

	IsSplitPayment bool
	SplitPayments  []SplitPayment

	IsServiceSplit bool
	ServiceSplits  []ServiceSplit
}

// Record is one allocated transaction record. Sibling records of a split
// sale carry ids "{originalId}", "{originalId}-2", ... in split order.
type Record struct {
	ID        string
	Method    string
	SortIndex int
	Totals    Totals
	Items     []LineItem
}

// Options tunes allocation.
type Options struct {
	// SplitTolerance overrides DefaultSplitTolerance when positive.
	SplitTolerance decimal.Decimal
}

// Allocate partitions the sale totals into one or more records and assigns
// every line item to exactly one of them. The allocated subtotal, tax, tip
// and totalPaid columns sum exactly to the input totals for every strategy.
func Allocate(sale Sale, opts Options) ([]Record, error) {
	if strings.TrimSpace(sale.OriginalID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if sale.Totals.anyNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totals must be non-negative")
	}

	var (
		records []Record
		err     error
	)
	switch {
	case sale.IsSplitPayment && len(sale.SplitPayments) >= 2:
		records, err = allocateByPayment(sale, tolerance(opts))
	case sale.IsServiceSplit && len(sale.ServiceSplits) >= 1:
		records = allocateByService(sale)
	default:
		records = []Record{{
			ID:        sale.OriginalID,
			Method:    resolveMethod(sale.Method),
			SortIndex: 1,
			Totals:    finalizeLastSplit(sale.Totals),
			Items:     cloneItems(sale.Items),
		}}
	}
	if err != nil {
		return nil, err
	}

	for i := range records {
		attachTips(&records[i])
	}
	return records, nil
}

// allocateByPayment splits the sale proportionally to each payment amount.
// The payment amount is authoritative for its slice's totalPaid; subtotal,
// tax and tip follow the amount/totalPaid ratio. Items are not divisible by
// payment instrument, so all of them attach to the first record.
func allocateByPayment(sale Sale, tol decimal.Decimal) ([]Record, error) {
	sum := decimal.Zero
	for _, p := range sale.SplitPayments {
		sum = sum.Add(p.Amount)
	}
	drift := round2(sum).Sub(round2(sale.Totals.TotalPaid)).Abs()
	if drift.GreaterThan(tol) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "split amounts do not equal total").
			WithDetails(map[string]any{
				"split_sum":  round2(sum).String(),
				"total_paid": round2(sale.Totals.TotalPaid).String(),
			})
	}

	remaining := sale.Totals
	records := make([]Record, 0, len(sale.SplitPayments))
	for i, payment := range sale.SplitPayments {
		var alloc Totals
		if i == len(sale.SplitPayments)-1 {
			alloc = finalizeLastSplit(remaining)
		} else {
			ratio := safeRatio(payment.Amount, sale.Totals.TotalPaid)
			alloc = Totals{
				Subtotal:  round2(sale.Totals.Subtotal.Mul(ratio)),
				Tax:       round2(sale.Totals.Tax.Mul(ratio)),
				Tip:       round2(sale.Totals.Tip.Mul(ratio)),
				TotalPaid: round2(payment.Amount),
			}
			remaining = remaining.sub(alloc)
		}
		records = append(records, Record{
			ID:        splitID(sale.OriginalID, i),
			Method:    resolveMethod(payment.Method),
			SortIndex: i + 1,
			Totals:    alloc,
		})
	}

	records[0].Items = cloneItems(sale.Items)
	return records, nil
}

// allocateByService partitions line items by their mapped payment method
// and splits the totals proportionally to each group's price share. Items
// genuinely divide across the split here, so each attaches to its group's
// record.
func allocateByService(sale Sale) []Record {
	methodByService := make(map[string]string, len(sale.ServiceSplits))
	for _, split := range sale.ServiceSplits {
		if split.ServiceID == "" || split.PaymentMethod == "" {
			continue
		}
		methodByService[split.ServiceID] = strings.ToLower(split.PaymentMethod)
	}

	fallback := resolveMethod(sale.Method)
	order := make([]string, 0, len(sale.Items))
	groups := map[string][]LineItem{}
	for _, item := range sale.Items {
		method := fallback
		if mapped, ok := methodByService[item.ServiceID]; ok {
			method = mapped
		}
		if _, seen := groups[method]; !seen {
			order = append(order, method)
		}
		groups[method] = append(groups[method], item)
	}
	// An empty partition still yields one record so every sale persists.
	if len(order) == 0 {
		order = append(order, fallback)
		groups[fallback] = cloneItems(sale.Items)
	}

	priceTotals := make(map[string]decimal.Decimal, len(order))
	grand := decimal.Zero
	for _, method := range order {
		total := decimal.Zero
		for _, item := range groups[method] {
			total = total.Add(item.Price)
		}
		priceTotals[method] = total
		grand = grand.Add(total)
	}
	one := decimal.NewFromInt(1)
	if grand.LessThan(one) {
		grand = one
	}

	remaining := sale.Totals
	records := make([]Record, 0, len(order))
	for i, method := range order {
		var alloc Totals
		if i == len(order)-1 {
			alloc = finalizeLastSplit(remaining)
		} else {
			alloc = sale.Totals.scale(priceTotals[method].Div(grand))
			remaining = remaining.sub(alloc)
		}
		records = append(records, Record{
			ID:        splitID(sale.OriginalID, i),
			Method:    method,
			SortIndex: i + 1,
			Totals:    alloc,
			Items:     cloneItems(groups[method]),
		})
	}
	return records
}

// attachTips divides a record's tip across its staffed items proportional
// to item price, equal shares when every staffed price is zero. The last
// staffed item absorbs the rounding remainder, mirroring the record-level
// allocation rule.
func attachTips(record *Record) {
	staffed := make([]int, 0, len(record.Items))
	priceSum := decimal.Zero
	for i, item := range record.Items {
		record.Items[i].StaffTipSplit = decimal.Zero
		record.Items[i].StaffTipCollected = false
		if strings.TrimSpace(item.StaffName) != "" {
			staffed = append(staffed, i)
			priceSum = priceSum.Add(item.Price)
		}
	}
	if len(staffed) == 0 || record.Totals.Tip.IsZero() {
		return
	}

	remaining := record.Totals.Tip
	for n, idx := range staffed {
		var share decimal.Decimal
		if n == len(staffed)-1 {
			share = round2(remaining)
		} else if priceSum.IsPositive() {
			share = round2(record.Totals.Tip.Mul(record.Items[idx].Price.Div(priceSum)))
		} else {
			share = round2(record.Totals.Tip.Div(decimal.NewFromInt(int64(len(staffed)))))
		}
		remaining = remaining.Sub(share)
		record.Items[idx].StaffTipSplit = share
		record.Items[idx].StaffTipCollected = share.IsPositive()
	}
}

func tolerance(opts Options) decimal.Decimal {
	if opts.SplitTolerance.IsPositive() {
		return opts.SplitTolerance
	}
	return DefaultSplitTolerance
}

func safeRatio(amount, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Div(total)
}

func splitID(originalID string, index int) string {
	if index == 0 {
		return originalID
	}
	return fmt.Sprintf("%s-%d", originalID, index+1)
}

func resolveMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return fallbackMethod
	}
	return method
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
