package allocator

import "github.com/shopspring/decimal"

// round2 is the single rounding primitive for all monetary arithmetic in
// this package (half away from zero at two decimal places). The remainder
// bookkeeping in Allocate assumes every intermediate value passed through
// it; mixing rounding policies breaks the conservation invariant.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Totals is the monetary summary of one sale, or of one allocated slice of
// it. Values are caller-computed ground truth; the allocator partitions
// them but never changes their sum.
type Totals struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Tip       decimal.Decimal
	TotalPaid decimal.Decimal
}

func (t Totals) sub(other Totals) Totals {
	return Totals{
		Subtotal:  t.Subtotal.Sub(other.Subtotal),
		Tax:       t.Tax.Sub(other.Tax),
		Tip:       t.Tip.Sub(other.Tip),
		TotalPaid: t.TotalPaid.Sub(other.TotalPaid),
	}
}

func (t Totals) scale(ratio decimal.Decimal) Totals {
	return Totals{
		Subtotal:  round2(t.Subtotal.Mul(ratio)),
		Tax:       round2(t.Tax.Mul(ratio)),
		Tip:       round2(t.Tip.Mul(ratio)),
		TotalPaid: round2(t.TotalPaid.Mul(ratio)),
	}
}

func (t Totals) anyNegative() bool {
	return t.Subtotal.IsNegative() || t.Tax.IsNegative() || t.Tip.IsNegative() || t.TotalPaid.IsNegative()
}

// finalizeLastSplit hands the final split whatever is left of the sale
// totals after all prior allocations. This is the rule that forces exact
// conservation: every rounding error accumulated by the earlier slices
// lands in the last one.
func finalizeLastSplit(remaining Totals) Totals {
	return Totals{
		Subtotal:  round2(remaining.Subtotal),
		Tax:       round2(remaining.Tax),
		Tip:       round2(remaining.Tip),
		TotalPaid: round2(remaining.TotalPaid),
	}
}
