package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies an enrollment's payment progress.
type Status string

// Derived payment statuses.
const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// DefaultGraceDays is the window after enrollment start before an unpaid
// enrollment counts as overdue.
const DefaultGraceDays = 30

// Summary is the derived payment aggregate for one enrollment. It is never
// stored; every read recomputes it from the ledger.
type Summary struct {
	Status     Status          `json:"status"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Balance    decimal.Decimal `json:"balance"`
}

type summaryOptions struct {
	overdue   bool
	graceDays int
}

// SummaryOption tunes status classification.
type SummaryOption func(*summaryOptions)

// WithOverdue toggles overdue detection. Disabled, unpaid enrollments are
// always pending regardless of age (the three-state variant used by student
// listings).
func WithOverdue(enabled bool) SummaryOption {
	return func(o *summaryOptions) { o.overdue = enabled }
}

// WithGraceDays overrides the due window used for overdue detection.
func WithGraceDays(days int) SummaryOption {
	return func(o *summaryOptions) {
		if days > 0 {
			o.graceDays = days
		}
	}
}

// Summarize sums the payment amounts against the frozen total and classifies
// the result. Precedence: paid (balance <= 0), then partial (anything paid),
// then overdue/pending for an untouched ledger. Overpayment is reported as a
// negative balance and still counts as paid.
func Summarize(totalFee decimal.Decimal, payments []decimal.Decimal, startDate, now time.Time, opts ...SummaryOption) Summary {
	options := summaryOptions{overdue: true, graceDays: DefaultGraceDays}
	for _, opt := range opts {
		opt(&options)
	}

	paid := decimal.Zero
	for _, amount := range payments {
		paid = paid.Add(amount)
	}
	balance := totalFee.Sub(paid)

	summary := Summary{PaidAmount: paid, Balance: balance}
	switch {
	case balance.Sign() <= 0:
		summary.Status = StatusPaid
	case paid.Sign() > 0:
		summary.Status = StatusPartial
	default:
		summary.Status = StatusPending
		if options.overdue {
			dueDate := startDate.AddDate(0, 0, options.graceDays)
			if now.After(dueDate) {
				summary.Status = StatusOverdue
			}
		}
	}
	return summary
}
