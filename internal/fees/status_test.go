package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var statusNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func payments(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func TestSummarizeClassification(t *testing.T) {
	startRecent := statusNow.AddDate(0, 0, -10)
	startOld := statusNow.AddDate(0, 0, -31)

	tests := []struct {
		name     string
		totalFee string
		payments []decimal.Decimal
		start    time.Time
		want     Status
		balance  string
	}{
		{"exact payoff", "10000", payments("10000"), startRecent, StatusPaid, "0"},
		{"two installments payoff", "10000", payments("6000", "4000"), startOld, StatusPaid, "0"},
		{"partial", "10000", payments("5000"), startOld, StatusPartial, "5000"},
		{"unpaid within grace", "10000", nil, startRecent, StatusPending, "10000"},
		{"unpaid past grace", "10000", nil, startOld, StatusOverdue, "10000"},
		{"overpayment", "10000", payments("12000"), startRecent, StatusPaid, "-2000"},
		{"zero fee no payments", "0", nil, startOld, StatusPaid, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(dec(tt.totalFee), tt.payments, tt.start, statusNow)
			assert.Equal(t, tt.want, got.Status)
			assert.True(t, got.Balance.Equal(dec(tt.balance)), "balance %s != %s", got.Balance, tt.balance)
		})
	}
}

func TestSummarizeThreeStateVariant(t *testing.T) {
	start := statusNow.AddDate(0, 0, -90)

	got := Summarize(dec("10000"), nil, start, statusNow, WithOverdue(false))

	assert.Equal(t, StatusPending, got.Status, "overdue detection disabled keeps old unpaid rows pending")
}

func TestSummarizeGraceBoundary(t *testing.T) {
	// Due date is start + grace; the status flips only strictly after it.
	start := statusNow.AddDate(0, 0, -30)

	onDue := Summarize(dec("10000"), nil, start, statusNow)
	assert.Equal(t, StatusPending, onDue.Status)

	after := Summarize(dec("10000"), nil, start, statusNow.Add(time.Second))
	assert.Equal(t, StatusOverdue, after.Status)
}

func TestSummarizeCustomGraceDays(t *testing.T) {
	start := statusNow.AddDate(0, 0, -10)

	got := Summarize(dec("10000"), nil, start, statusNow, WithGraceDays(7))

	assert.Equal(t, StatusOverdue, got.Status)
}

func TestSummarizeIsPure(t *testing.T) {
	start := statusNow.AddDate(0, 0, -5)
	ledger := payments("2500", "2500")

	first := Summarize(dec("10000"), ledger, start, statusNow)
	second := Summarize(dec("10000"), ledger, start, statusNow)

	assert.Equal(t, first, second)
	assert.True(t, first.PaidAmount.Equal(dec("5000")))
}
